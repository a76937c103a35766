package statechannel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
	"github.com/Layr-Labs/fairswap-bench/pkg/encoding"
	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/filesale"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

// FaithfulSeller opens a channel, waits for the buyer's deposit, sells the
// same file for "iterations" rounds revealing the true key each time, and
// closes cooperatively.
type FaithfulSeller struct {
	ctx protocols.Context
}

func (s *FaithfulSeller) Run(ctx context.Context) (party.ResourceUsage, error) {
	return runSeller(ctx, s.ctx, true)
}

// GrievingSeller opens a channel and waits for funding exactly like
// FaithfulSeller, but on its first sale never reveals the key, forcing the
// buyer into the on-chain dispute path.
type GrievingSeller struct {
	ctx protocols.Context
}

func (s *GrievingSeller) Run(ctx context.Context) (party.ResourceUsage, error) {
	return runSeller(ctx, s.ctx, false)
}

func runSeller(ctx context.Context, pc protocols.Context, reveal bool) (party.ResourceUsage, error) {
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	sess, err := sellerOpenChannel(ctx, pc)
	if err != nil {
		return party.ResourceUsage{}, err
	}

	n := iterationsFor(pc.Parameters)
	for i := 0; i < n; i++ {
		if err := sellerIteration(ctx, pc, sess, reveal); err != nil {
			if pc.Logger != nil {
				pc.Logger.Warn("seller iteration ended early", zap.Error(err))
			}
			break
		}
	}

	if err := sellerClose(ctx, pc, sess); err != nil {
		return party.ResourceUsage{}, err
	}

	return finalizeUsage(ctx, pc, startBalance)
}

func sellerOpenChannel(ctx context.Context, pc protocols.Context) (*channelSession, error) {
	adjudicator, assetHolder, app, err := deployChannelContracts(ctx, pc)
	if err != nil {
		return nil, err
	}

	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	sellerAddr := pc.Chain.Address()
	buyerAddr := common.Address(pc.Counterparty)
	params := channel.Params{
		ChallengeDuration: challengeDurationFor(pc.Timeout),
		Nonce:             nonce,
		Participants:      [2]common.Address{sellerAddr, buyerAddr},
		App:               app.Address(),
		LedgerChannel:     true,
	}
	channelID, err := params.ChannelID()
	if err != nil {
		return nil, &bfeerrors.ProtocolInitializationError{Message: "derive channel id", Cause: err}
	}

	n := iterationsFor(pc.Parameters)
	totalPrice := uint256.MustFromBig(new(big.Int).Mul(pc.Price, big.NewInt(int64(n))))
	initApp := filesale.NewAppState(common.Hash{}, common.Hash{}, common.Hash{}, uint256.MustFromBig(pc.Price))
	initState := channel.State{
		ChannelID: channelID,
		Version:   0,
		Outcome:   initialOutcome(totalPrice),
		AppData:   mustEncodeApp(initApp),
		IsFinal:   false,
	}

	sellerSig, err := channel.SignState(initState, pc.Key)
	if err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "sign initial state", Cause: err}
	}

	if _, err := pc.Stream.WriteObject(openMessage{
		Params:             toWireParams(params),
		State:              toWireState(initState),
		Signature:          hex.EncodeToString(sellerSig),
		AdjudicatorAddress: adjudicator.Address().Hex(),
		AssetHolderAddress: assetHolder.Address().Hex(),
	}); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "send open message", Cause: err}
	}

	var ack openAckMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &ack); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "receive open acknowledgement", Cause: err}
	}
	buyerSig, err := hex.DecodeString(ack.Signature)
	if err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "decode buyer open signature", Cause: err}
	}
	ok, err := channel.VerifyStateSig(initState, buyerSig, buyerAddr)
	if err != nil || !ok {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "buyer open signature does not verify"}
	}

	fundingID := channel.FundingID(channelID, buyerAddr)
	if _, err := pc.Chain.Wait(ctx, time.Now().Add(pc.Timeout), func(ctx context.Context) (bool, error) {
		holdings, err := assetHolder.Holdings(&bind.CallOpts{Context: ctx}, fundingID)
		if err != nil {
			return false, err
		}
		return holdings.Cmp(totalPrice.ToBig()) >= 0, nil
	}); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "wait for buyer funding", Cause: err}
	}

	return &channelSession{
		params:      params,
		adjudicator: adjudicator,
		assetHolder: assetHolder,
		current:     initState,
		currentApp:  initApp,
		sigs:        [2][]byte{sellerSig, buyerSig},
	}, nil
}

func sellerIteration(ctx context.Context, pc protocols.Context, sess *channelSession, reveal bool) error {
	fileBytes, err := readFile(pc.FilePath)
	if err != nil {
		return &bfeerrors.ProtocolInitializationError{Message: "read file", Cause: err}
	}
	tree, err := merkle.BuildFromBytes(fileBytes, sliceCountFor(len(fileBytes)), fecrypto.Keccak256)
	if err != nil {
		return &bfeerrors.ProtocolInitializationError{Message: "build file tree", Cause: err}
	}
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return &bfeerrors.ProtocolInitializationError{Message: "generate key", Cause: err}
	}
	encodedTree, err := encoding.Encode(tree, key)
	if err != nil {
		return &bfeerrors.ProtocolInitializationError{Message: "encode tree", Cause: err}
	}

	price := uint256.MustFromBig(pc.Price)
	nextApp := resetAppState(common.Hash(tree.Digest()), common.Hash(encodedTree.Digest()), common.Hash(fecrypto.Keccak256(key[:])), price)
	nextState, err := bumpState(sess.current, nextApp)
	if err != nil {
		return err
	}
	sellerSig, err := channel.SignState(nextState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign sale state", Cause: err}
	}

	buyerAddr := common.Address(pc.Counterparty)
	if _, err := pc.Stream.WriteObject(initializeMessage{
		FileRoot:       hexDigest(tree.Digest()),
		CiphertextRoot: hexDigest(encodedTree.Digest()),
		KeyCommitment:  hexDigest(fecrypto.Keccak256(key[:])),
		Price:          pc.Price.String(),
		Tree:           merkle.MT2Obj(encodedTree),
		State:          toWireState(nextState),
		Signature:      hex.EncodeToString(sellerSig),
	}); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "send initialize message", Cause: err}
	}

	var accept acceptMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &accept); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "receive accept message", Cause: err}
	}
	buyerAcceptSig, err := hex.DecodeString(accept.Signature)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode accept signature", Cause: err}
	}
	if ok, err := channel.VerifyStateSig(nextState, buyerAcceptSig, buyerAddr); err != nil || !ok {
		return &bfeerrors.ProtocolRuntimeError{Message: "buyer accept signature does not verify"}
	}
	sess.current, sess.currentApp, sess.sigs = nextState, nextApp, [2][]byte{sellerSig, buyerAcceptSig}

	if !reveal {
		// The grieving seller stops here: it never reveals the key,
		// leaving the buyer no choice but to dispute on-chain.
		pc.Chain.Wait(ctx, time.Now().Add(pc.Timeout), func(context.Context) (bool, error) { return false, nil })
		return &bfeerrors.ProtocolRuntimeError{Message: "grieving seller withholds key reveal"}
	}

	revealState, revealApp := filesale.RevealKey(sess.current, sess.currentApp, common.Hash(key), sellerIndex, buyerIndex)
	revealSig, err := channel.SignState(revealState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign key-reveal state", Cause: err}
	}
	if _, err := pc.Stream.WriteObject(revealKeyMessage{
		Key:       hex.EncodeToString(key[:]),
		State:     toWireState(revealState),
		Signature: hex.EncodeToString(revealSig),
	}); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "send reveal key message", Cause: err}
	}

	var confirm confirmMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &confirm); err != nil {
		// The buyer didn't confirm in time, most likely because decoding
		// failed and it went to dispute instead; the seller stops
		// iterating and lets close/dispute settle the channel.
		return &bfeerrors.ProtocolRuntimeError{Message: "buyer did not confirm", Cause: err}
	}
	confirmState, err := fromWireState(confirm.State, assetETH)
	if err != nil {
		return err
	}
	buyerConfirmSig, err := hex.DecodeString(confirm.Signature)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode confirm signature", Cause: err}
	}
	if ok, err := channel.VerifyStateSig(confirmState, buyerConfirmSig, buyerAddr); err != nil || !ok {
		return &bfeerrors.ProtocolRuntimeError{Message: "buyer confirm signature does not verify"}
	}
	sellerConfirmSig, err := channel.SignState(confirmState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "countersign confirm state", Cause: err}
	}
	confirmApp, err := filesale.DecodeAppState(confirmState.AppData)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode confirm app state", Cause: err}
	}
	sess.current, sess.currentApp, sess.sigs = confirmState, confirmApp, [2][]byte{sellerConfirmSig, buyerConfirmSig}
	return nil
}

func sellerClose(ctx context.Context, pc protocols.Context, sess *channelSession) error {
	finalState := channel.State{
		ChannelID: sess.current.ChannelID,
		Version:   sess.current.Version + 1,
		Outcome:   sess.current.Outcome,
		AppData:   sess.current.AppData,
		IsFinal:   true,
	}
	sellerSig, err := channel.SignState(finalState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign final state", Cause: err}
	}
	if _, err := pc.Stream.WriteObject(closeMessage{State: toWireState(finalState), Signature: hex.EncodeToString(sellerSig)}); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "send close message", Cause: err}
	}

	var closeMsg closeMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &closeMsg); err != nil {
		// Buyer unreachable; conclude solo against the last state both
		// sides actually co-signed instead of the proposed final one.
		return sellerConcludeAndWithdraw(ctx, pc, sess, sess.current, sess.sigs)
	}
	buyerSig, err := hex.DecodeString(closeMsg.Signature)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode close signature", Cause: err}
	}
	buyerAddr := common.Address(pc.Counterparty)
	if ok, err := channel.VerifyStateSig(finalState, buyerSig, buyerAddr); err != nil || !ok {
		return sellerConcludeAndWithdraw(ctx, pc, sess, sess.current, sess.sigs)
	}
	return sellerConcludeAndWithdraw(ctx, pc, sess, finalState, [2][]byte{sellerSig, buyerSig})
}

func sellerConcludeAndWithdraw(ctx context.Context, pc protocols.Context, sess *channelSession, finalState channel.State, sigs [2][]byte) error {
	paramsEnc, err := sess.params.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode params", Cause: err}
	}
	stateEnc, err := finalState.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode final state", Cause: err}
	}
	opts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := sess.adjudicator.ConcludeFinal(opts, paramsEnc, stateEnc, sigs[:]); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "conclude final channel state", Cause: err}
	}

	sellerAddr := pc.Chain.Address()
	balance := finalState.Outcome.Balances[0][sellerIndex]
	if balance.IsZero() {
		return nil
	}
	withdrawal := channel.WithdrawalAuth{
		ChannelID:   finalState.ChannelID,
		Participant: sellerAddr,
		Receiver:    sellerAddr,
		Amount:      balance,
	}
	sig, err := channel.SignWithdrawalAuth(withdrawal, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign withdrawal", Cause: err}
	}
	withdrawOpts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := sess.assetHolder.Withdraw(withdrawOpts, finalState.ChannelID, sellerAddr, sellerAddr, balance.ToBig(), sig); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "withdraw seller balance", Cause: err}
	}
	return nil
}

func mustEncodeApp(app filesale.AppState) []byte {
	encoded, err := app.Encode()
	if err != nil {
		panic("statechannel: encode app state: " + err.Error())
	}
	return encoded
}
