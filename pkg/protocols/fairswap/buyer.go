package fairswap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/fairswap-bench/internal/bindings"
	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/chainadapter"
	"github.com/Layr-Labs/fairswap-bench/pkg/encoding"
	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

// FaithfulBuyer verifies the seller's delivery against the on-chain
// commitment, pays into escrow, and decodes once the key is revealed,
// routing any mismatch to the matching on-chain complaint. It never calls
// noComplain on a clean decode - the settlement simply stands once the
// contract's own timeout elapses.
type FaithfulBuyer struct {
	ctx protocols.Context
}

func (b *FaithfulBuyer) Run(ctx context.Context) (party.ResourceUsage, error) {
	pc := b.ctx
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	var msg initMessage
	if _, err := pc.Stream.ReadObject(&msg); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "receive init message", Cause: err}
	}

	encodedTree, err := merkle.Obj2MT(msg.Tree, fecrypto.Keccak256)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "decode delivered tree", Cause: err}
	}
	if !encoding.IsEncoded(encodedTree) {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "delivered tree is not a Fairswap-encoded tree"}
	}
	if hexDigest(encodedTree.Digest()) != msg.CiphertextRoot {
		// A seller who lies about the ciphertext root isn't worth
		// engaging with on-chain; abort without spending any gas.
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	contractAddr := common.HexToAddress(msg.ContractAddress)
	contract := bindings.NewFairswap(contractAddr, pc.Chain.Client())

	onChainFileRoot, err := contract.FileRoot(&bind.CallOpts{Context: ctx})
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "read on-chain file root", Cause: err}
	}
	onChainCiphertextRoot, err := contract.CiphertextRoot(&bind.CallOpts{Context: ctx})
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "read on-chain ciphertext root", Cause: err}
	}
	if hexDigest(onChainCiphertextRoot) != msg.CiphertextRoot || hexDigest(onChainFileRoot) != msg.FileRoot {
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	acceptOpts, err := pc.Chain.TransactOpts(ctx, pc.Price)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if _, err := contract.Accept(acceptOpts); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "accept and pay into escrow", Cause: err}
	}

	deadline := time.Now().Add(pc.Timeout)
	waitResult, err := pc.Chain.Wait(ctx, deadline, func(ctx context.Context) (bool, error) {
		phase, err := contract.Phase(&bind.CallOpts{Context: ctx})
		if err != nil {
			return false, err
		}
		return phase == phaseKeyRevealed, nil
	})
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if waitResult != chainadapter.WaitConditionMet {
		refundOpts, err := pc.Chain.TransactOpts(ctx, nil)
		if err != nil {
			return party.ResourceUsage{}, err
		}
		if _, err := contract.Refund(refundOpts); err != nil {
			return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "refund after key-reveal timeout", Cause: err}
		}
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	key, err := contract.Key(&bind.CallOpts{Context: ctx})
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "read revealed key", Cause: err}
	}

	_, decodeErrs, err := encoding.DecodeAndVerify(encodedTree, key, nil, merkle.Digest(onChainFileRoot))
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "decode delivery", Cause: err}
	}

	kind, complainErr := encoding.ComplaintFor(decodeErrs)
	if kind == encoding.ComplaintNone {
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	if err := fileComplaint(ctx, pc, contract, encodedTree, kind, complainErr); err != nil {
		return party.ResourceUsage{}, err
	}

	return finalizeBuyerUsage(ctx, pc, startBalance)
}

// fileComplaint submits the on-chain complaint matching kind, proving the
// mismatched slot against the ciphertext tree the seller delivered.
// indexOut addresses the pack slot one level above the mismatch; this
// package always proves that slot's position in the encoded tree's flat
// leaf space (sliceCount + indexOut), which is where Encode placed it.
func fileComplaint(ctx context.Context, pc protocols.Context, contract *bindings.Fairswap, encodedTree *merkle.Node, kind encoding.ComplaintKind, complainErr encoding.DecodingError) error {
	sliceCount := encodedTree.LeafCount() / 2

	opts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return err
	}

	switch kind {
	case encoding.ComplaintLeaf:
		e := complainErr.(*encoding.LeafDigestMismatch)
		proof, err := encodedTree.Proof(sliceCount + e.IndexOut)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "build leaf complaint proof", Cause: err}
		}
		var d1, d2 [32]byte
		copy(d1[:], e.In1Data)
		copy(d2[:], e.In2Data)
		if _, err := contract.ComplainAboutLeaf(opts, digestsToArrays(proof),
			big.NewInt(int64(e.IndexOut)), big.NewInt(int64(e.IndexIn1)), big.NewInt(int64(e.IndexIn2)), d1, d2); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit leaf complaint", Cause: err}
		}
	case encoding.ComplaintNode:
		e := complainErr.(*encoding.NodeDigestMismatch)
		proof, err := encodedTree.Proof(sliceCount + e.IndexOut)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "build node complaint proof", Cause: err}
		}
		if _, err := contract.ComplainAboutNode(opts, digestsToArrays(proof),
			big.NewInt(int64(e.IndexOut)), big.NewInt(int64(e.IndexIn1)), big.NewInt(int64(e.IndexIn2)),
			e.ExpectedDigest, e.In1Digest, e.In2Digest); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit node complaint", Cause: err}
		}
	case encoding.ComplaintRoot:
		e := complainErr.(*encoding.RootDigestMismatch)
		proof, err := encodedTree.Proof(e.LeafIndex)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "build root complaint proof", Cause: err}
		}
		var leafData [32]byte
		copy(leafData[:], e.CipherLeafData)
		if _, err := contract.ComplainAboutRoot(opts, digestsToArrays(proof), big.NewInt(int64(e.LeafIndex)), leafData); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit root complaint", Cause: err}
		}
	}
	return nil
}

func digestsToArrays(ds []merkle.Digest) [][32]byte {
	out := make([][32]byte, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

func finalizeBuyerUsage(ctx context.Context, pc protocols.Context, startBalance *big.Int) (party.ResourceUsage, error) {
	endBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}
	diff := new(big.Int).Sub(endBalance, startBalance)
	return party.ResourceUsage{
		TxCount:        pc.Chain.TxCount(),
		TxFeesGas:      pc.Chain.TxFeesGas(),
		BalanceDiffEth: weiToEth(diff),
	}, nil
}
