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

const reusableProtocolName = "fairswap-reusable"

func init() {
	entry := protocols.Register(reusableProtocolName)
	entry.RegisterSeller("faithful", func(c protocols.Context) protocols.Strategy { return &ReusableFaithfulSeller{ctx: c} })
	entry.RegisterBuyer("faithful", func(c protocols.Context) protocols.Strategy { return &ReusableFaithfulBuyer{ctx: c} })
}

// sessionID derives the key a FairswapReusable contract multiplexes
// sessions by: keccak(seller, buyer, fileRoot).
func sessionID(seller, buyer common.Address, fileRoot merkle.Digest) [32]byte {
	return fecrypto.Keccak256(seller.Bytes(), buyer.Bytes(), fileRoot[:])
}

// ReusableFaithfulSeller runs the same honest flow as FaithfulSeller
// against a pre-deployed FairswapReusable contract (supplied via the
// "fairswap_reusable_address" parameter) instead of deploying a fresh
// Fairswap per trade.
type ReusableFaithfulSeller struct {
	ctx protocols.Context
}

func (s *ReusableFaithfulSeller) Run(ctx context.Context) (party.ResourceUsage, error) {
	pc := s.ctx
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	fileBytes, err := readFile(pc.FilePath)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "read file", Cause: err}
	}
	fileTree, err := merkle.BuildFromBytes(fileBytes, sliceCountFor(len(fileBytes)), fecrypto.Keccak256)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "build file tree", Cause: err}
	}

	var key [32]byte
	if err := fillRandom(key[:]); err != nil {
		return party.ResourceUsage{}, err
	}
	encodedTree, _, err := forgeFaithful(fileTree, key)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "encode tree", Cause: err}
	}

	contractAddrHex, ok := pc.Parameters["fairswap_reusable_address"]
	if !ok {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "missing fairswap_reusable_address parameter"}
	}
	contract := reusableContract(contractAddrHex, pc)

	session := sessionID(pc.Chain.Address(), common.Address(pc.Counterparty), fileTree.Digest())
	deadline := time.Now().Add(pc.Timeout)

	openOpts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	timeoutUnix := bigIntFromUnix(deadline)
	if _, err := contract.Open(openOpts, session, common.Address(pc.Counterparty), pc.Price,
		fecrypto.Keccak256(key[:]), encodedTree.Digest(), fileTree.Digest(), timeoutUnix); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "open reusable session", Cause: err}
	}

	if _, err := pc.Stream.WriteObject(initMessage{
		ContractAddress: contract.Address().Hex(),
		FileRoot:        hexDigest(fileTree.Digest()),
		CiphertextRoot:  hexDigest(encodedTree.Digest()),
		Tree:            merkle.MT2Obj(encodedTree),
	}); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "send init message", Cause: err}
	}

	waitResult, err := pc.Chain.Wait(ctx, deadline, func(ctx context.Context) (bool, error) {
		phase, err := contract.PhaseOf(&bind.CallOpts{Context: ctx}, session)
		if err != nil {
			return false, err
		}
		return phase == phaseAccepted, nil
	})
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if waitResult != chainadapter.WaitConditionMet {
		refundOpts, err := pc.Chain.TransactOpts(ctx, nil)
		if err != nil {
			return party.ResourceUsage{}, err
		}
		if _, err := contract.Refund(refundOpts, session); err != nil {
			return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "refund session", Cause: err}
		}
		return finalizeSellerUsage(ctx, pc, startBalance)
	}

	revealOpts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if _, err := contract.RevealKey(revealOpts, session, key); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "reveal key", Cause: err}
	}

	pc.Chain.Wait(ctx, time.Now().Add(pc.Timeout), func(context.Context) (bool, error) { return false, nil })
	return finalizeSellerUsage(ctx, pc, startBalance)
}

// ReusableFaithfulBuyer mirrors FaithfulBuyer against the session-keyed
// contract.
type ReusableFaithfulBuyer struct {
	ctx protocols.Context
}

func (b *ReusableFaithfulBuyer) Run(ctx context.Context) (party.ResourceUsage, error) {
	pc := b.ctx
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	var msg initMessage
	if _, err := pc.Stream.ReadObject(&msg); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "receive init message", Cause: err}
	}

	fileRootBytes, err := decodeHexDigest(msg.FileRoot)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	session := sessionID(common.Address(pc.Counterparty), pc.Chain.Address(), fileRootBytes)

	contract := reusableContract(msg.ContractAddress, pc)

	acceptOpts, err := pc.Chain.TransactOpts(ctx, pc.Price)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if _, err := contract.Accept(acceptOpts, session); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "accept session", Cause: err}
	}

	deadline := time.Now().Add(pc.Timeout)
	waitResult, err := pc.Chain.Wait(ctx, deadline, func(ctx context.Context) (bool, error) {
		phase, err := contract.PhaseOf(&bind.CallOpts{Context: ctx}, session)
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
		if _, err := contract.Refund(refundOpts, session); err != nil {
			return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "refund session", Cause: err}
		}
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	encodedTree, err := merkle.Obj2MT(msg.Tree, fecrypto.Keccak256)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "decode delivered tree", Cause: err}
	}

	key, err := contract.KeyOf(&bind.CallOpts{Context: ctx}, session)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "read revealed key", Cause: err}
	}

	_, decodeErrs, err := encoding.DecodeAndVerify(encodedTree, key, nil, fileRootBytes)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "decode delivery", Cause: err}
	}

	kind, complainErr := encoding.ComplaintFor(decodeErrs)
	if kind == encoding.ComplaintNone {
		return finalizeBuyerUsage(ctx, pc, startBalance)
	}

	if err := fileComplaintOnSession(ctx, pc, contract, session, encodedTree, kind, complainErr); err != nil {
		return party.ResourceUsage{}, err
	}

	return finalizeBuyerUsage(ctx, pc, startBalance)
}

// fileComplaintOnSession mirrors fileComplaint against the session-keyed
// FairswapReusable contract, whose complaint methods take the same
// arguments with a leading sessionID.
func fileComplaintOnSession(ctx context.Context, pc protocols.Context, contract *bindings.FairswapReusable, session [32]byte, encodedTree *merkle.Node, kind encoding.ComplaintKind, complainErr encoding.DecodingError) error {
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
		if _, err := contract.ComplainAboutLeaf(opts, session, digestsToArrays(proof),
			big.NewInt(int64(e.IndexOut)), big.NewInt(int64(e.IndexIn1)), big.NewInt(int64(e.IndexIn2)), d1, d2); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit leaf complaint", Cause: err}
		}
	case encoding.ComplaintNode:
		e := complainErr.(*encoding.NodeDigestMismatch)
		proof, err := encodedTree.Proof(sliceCount + e.IndexOut)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "build node complaint proof", Cause: err}
		}
		if _, err := contract.ComplainAboutNode(opts, session, digestsToArrays(proof),
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
		if _, err := contract.ComplainAboutRoot(opts, session, digestsToArrays(proof), big.NewInt(int64(e.LeafIndex)), leafData); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit root complaint", Cause: err}
		}
	}
	return nil
}
