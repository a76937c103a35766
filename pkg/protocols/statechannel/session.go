package statechannel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/fairswap-bench/internal/bindings"
	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
	"github.com/Layr-Labs/fairswap-bench/pkg/filesale"
	"github.com/Layr-Labs/fairswap-bench/pkg/p2pstream"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

const (
	adjudicatorBytecodeParam = "adjudicator_bytecode"
	assetHolderBytecodeParam = "asset_holder_bytecode"
	fileSaleAppBytecodeParam = "filesale_app_bytecode"
)

// assetETH is the zero address, standing in for native ETH the way
// go-perun's asset holders key their ledger by asset address.
var assetETH common.Address

// channelSession tracks one open channel's on-chain handles alongside the
// latest pair of co-signed (State, AppState) both sides agree the channel
// is in.
type channelSession struct {
	params      channel.Params
	adjudicator *bindings.Adjudicator
	assetHolder *bindings.AssetHolderETH

	current    channel.State
	currentApp filesale.AppState
	sigs       [2][]byte
}

func bytecodeParam(params map[string]string, key string) ([]byte, error) {
	hexStr, ok := params[key]
	if !ok || hexStr == "" {
		return nil, &bfeerrors.ProtocolInitializationError{Message: "missing " + key + " bytecode parameter"}
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return nil, &bfeerrors.ProtocolInitializationError{Message: "decode " + key, Cause: err}
	}
	return raw, nil
}

func randomNonce() ([32]byte, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, &bfeerrors.ProtocolInitializationError{Message: "generate channel nonce", Cause: err}
	}
	return nonce, nil
}

// initialOutcome puts the channel's entire stake on the buyer's side: the
// buyer funds iterations*price up front, and every sale simply moves
// price from buyer to seller (RevealKey) or back (a successful complaint).
func initialOutcome(totalPrice *uint256.Int) channel.Allocation {
	return channel.Allocation{
		Assets: []common.Address{assetETH},
		Balances: [][]*uint256.Int{
			{uint256.NewInt(0), totalPrice},
		},
	}
}

// resetAppState starts a new iteration's sale directly in the ACCEPTED
// phase: both parties co-sign the new file commitment and the buyer's
// escrow payment as a single transition, collapsing the wire protocol's
// separate IDLE and ACCEPTED phases (both of which exist purely to carry
// the roots and the buyer's go-ahead) into one signed state. Only
// RevealKey, Confirm and ComplaintSuccessfulState rely on
// filesale.ValidTransition's phase chain from here on.
func resetAppState(fileRoot, ciphertextRoot, keyCommit common.Hash, price *uint256.Int) filesale.AppState {
	app := filesale.NewAppState(fileRoot, ciphertextRoot, keyCommit, price)
	app.Phase = filesale.Accepted
	return app
}

func bumpState(prev channel.State, nextApp filesale.AppState) (channel.State, error) {
	encoded, err := nextApp.Encode()
	if err != nil {
		return channel.State{}, &bfeerrors.ProtocolRuntimeError{Message: "encode app state", Cause: err}
	}
	return channel.State{
		ChannelID: prev.ChannelID,
		Version:   prev.Version + 1,
		Outcome:   prev.Outcome,
		AppData:   encoded,
		IsFinal:   false,
	}, nil
}

func deployChannelContracts(ctx context.Context, pc protocols.Context) (*bindings.Adjudicator, *bindings.AssetHolderETH, *bindings.FileSaleApp, error) {
	adjBytecode, err := bytecodeParam(pc.Parameters, adjudicatorBytecodeParam)
	if err != nil {
		return nil, nil, nil, err
	}
	adjudicator, err := pc.Deployer.Adjudicator(ctx, adjBytecode)
	if err != nil {
		return nil, nil, nil, err
	}
	holderBytecode, err := bytecodeParam(pc.Parameters, assetHolderBytecodeParam)
	if err != nil {
		return nil, nil, nil, err
	}
	assetHolder, err := pc.Deployer.AssetHolderETH(ctx, holderBytecode)
	if err != nil {
		return nil, nil, nil, err
	}
	appBytecode, err := bytecodeParam(pc.Parameters, fileSaleAppBytecodeParam)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := pc.Deployer.FileSaleApp(ctx, appBytecode)
	if err != nil {
		return nil, nil, nil, err
	}
	return adjudicator, assetHolder, app, nil
}

// readWithTimeout reads one object from stream, giving up and returning a
// bfeerrors.TimeoutError if nothing arrives before deadline - used
// anywhere a party is waiting on its counterparty's next message rather
// than on the chain, where chainadapter.Adapter.Wait doesn't apply.
func readWithTimeout(ctx context.Context, stream *p2pstream.Stream, deadline time.Time, v any) error {
	done := make(chan error, 1)
	go func() { _, err := stream.ReadObject(v); done <- err }()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Until(deadline)):
		return &bfeerrors.TimeoutError{}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func finalizeUsage(ctx context.Context, pc protocols.Context, startBalance *big.Int) (party.ResourceUsage, error) {
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
