package fairswap

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/chainadapter"
	"github.com/Layr-Labs/fairswap-bench/pkg/encoding"
	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

// encodeFunc produces the ciphertext tree a seller deploys against and the
// file root it claims that tree decodes to; the three adversarial variants
// differ only in this step. A seller always hands the buyer a tree built
// under the real key - RootForging's dishonesty is in the claimed root,
// not the ciphertext, so a buyer's fold stays clean right up to the final
// digest comparison.
type encodeFunc func(tree *merkle.Node, key [32]byte) (encodedTree *merkle.Node, claimedRoot merkle.Digest, err error)

func forgeFaithful(tree *merkle.Node, key [32]byte) (*merkle.Node, merkle.Digest, error) {
	encodedTree, err := encoding.Encode(tree, key)
	return encodedTree, tree.Digest(), err
}

// forgeRoot encodes honestly, so every leaf and node checks out, but
// claims a root the encoded ciphertext can never actually decode to -
// the seller delivers one file while the contract is told it's another.
func forgeRoot(tree *merkle.Node, key [32]byte) (*merkle.Node, merkle.Digest, error) {
	encodedTree, err := encoding.Encode(tree, key)
	if err != nil {
		return nil, merkle.Digest{}, err
	}
	claimedRoot := fecrypto.Keccak256(tree.Digest()[:], []byte("forged-root"))
	return encodedTree, claimedRoot, nil
}

func forgeLeaf(tree *merkle.Node, key [32]byte) (*merkle.Node, merkle.Digest, error) {
	encodedTree, err := encoding.EncodeForgeFirstLeaf(tree, key)
	return encodedTree, tree.Digest(), err
}

func forgeNode(tree *merkle.Node, key [32]byte) (*merkle.Node, merkle.Digest, error) {
	encodedTree, err := encoding.EncodeForgeFirstLeafFirstHash(tree, key)
	return encodedTree, tree.Digest(), err
}

// FaithfulSeller builds the encoding honestly and reveals the true key
// once the buyer has paid.
type FaithfulSeller struct {
	ctx protocols.Context
}

func (s *FaithfulSeller) Run(ctx context.Context) (party.ResourceUsage, error) {
	return runSeller(ctx, s.ctx, forgeFaithful)
}

// forgingSeller shares the faithful seller's full message flow but
// substitutes an adversarial encoding step, so a forged delivery still
// looks identical to the buyer until it tries to decode.
type forgingSeller struct {
	ctx   protocols.Context
	forge encodeFunc
}

func (s *forgingSeller) Run(ctx context.Context) (party.ResourceUsage, error) {
	return runSeller(ctx, s.ctx, s.forge)
}

func runSeller(ctx context.Context, pc protocols.Context, forge encodeFunc) (party.ResourceUsage, error) {
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	fileBytes, err := readFile(pc.FilePath)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "read file", Cause: err}
	}
	sliceCount := sliceCountFor(len(fileBytes))

	fileTree, err := merkle.BuildFromBytes(fileBytes, sliceCount, fecrypto.Keccak256)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "build file tree", Cause: err}
	}

	var key [32]byte
	if err := fillRandom(key[:]); err != nil {
		return party.ResourceUsage{}, err
	}

	encodedTree, fileRoot, err := forge(fileTree, key)
	if err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolInitializationError{Message: "encode tree", Cause: err}
	}

	keyCommit := fecrypto.Keccak256(key[:])
	ciphertextRoot := encodedTree.Digest()

	bytecode, err := bytecodeFromParameters(pc.Parameters, "fairswap_bytecode")
	if err != nil {
		return party.ResourceUsage{}, err
	}

	deadline := time.Now().Add(pc.Timeout)
	timeoutUnix := big.NewInt(deadline.Unix())
	contract, err := pc.Deployer.Fairswap(ctx, bytecode, common.Address(pc.Counterparty),
		pc.Price, keyCommit, ciphertextRoot, fileRoot, timeoutUnix)
	if err != nil {
		return party.ResourceUsage{}, err
	}

	if _, err := pc.Stream.WriteObject(initMessage{
		ContractAddress: contract.Address().Hex(),
		FileRoot:        hexDigest(fileRoot),
		CiphertextRoot:  hexDigest(ciphertextRoot),
		Tree:            merkle.MT2Obj(encodedTree),
	}); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "send init message", Cause: err}
	}

	waitResult, err := pc.Chain.Wait(ctx, deadline, func(ctx context.Context) (bool, error) {
		phase, err := contract.Phase(&bind.CallOpts{Context: ctx})
		if err != nil {
			return false, err
		}
		return phase == phaseAccepted, nil
	})
	if err != nil {
		return party.ResourceUsage{}, err
	}

	if waitResult != chainadapter.WaitConditionMet {
		opts, err := pc.Chain.TransactOpts(ctx, nil)
		if err != nil {
			return party.ResourceUsage{}, err
		}
		if _, err := contract.Refund(opts); err != nil {
			return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "refund after accept timeout", Cause: err}
		}
		return finalizeSellerUsage(ctx, pc, startBalance)
	}

	revealOpts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	if _, err := contract.RevealKey(revealOpts, key); err != nil {
		return party.ResourceUsage{}, &bfeerrors.ProtocolRuntimeError{Message: "reveal key", Cause: err}
	}

	// Wait out the complaint window; a faithful buyer never complains, so
	// this simply lets the timeout elapse before the seller considers the
	// trade settled. An adversarial seller's forged encoding may instead
	// draw a complaint transaction from the buyer during this window,
	// which this wait does not itself observe - the final balance check
	// is what reflects whether a complaint succeeded.
	pc.Chain.Wait(ctx, time.Now().Add(pc.Timeout), func(ctx context.Context) (bool, error) {
		return false, nil
	})

	return finalizeSellerUsage(ctx, pc, startBalance)
}

func finalizeSellerUsage(ctx context.Context, pc protocols.Context, startBalance *big.Int) (party.ResourceUsage, error) {
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

func sliceCountFor(fileLen int) int {
	n := 1
	for n*32 < fileLen {
		n *= 2
	}
	if n < 2 {
		n = 2
	}
	return n
}

func fillRandom(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return &bfeerrors.ProtocolInitializationError{Message: "generate random key", Cause: err}
	}
	return nil
}
