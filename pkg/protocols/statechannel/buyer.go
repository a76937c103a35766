package statechannel

import (
	"context"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/fairswap-bench/internal/bindings"
	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
	"github.com/Layr-Labs/fairswap-bench/pkg/encoding"
	"github.com/Layr-Labs/fairswap-bench/pkg/fecrypto"
	"github.com/Layr-Labs/fairswap-bench/pkg/filesale"
	"github.com/Layr-Labs/fairswap-bench/pkg/merkle"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

// FaithfulBuyer funds the channel, pays for "iterations" sales, confirms
// every clean decode, and falls back to the on-chain dispute path the
// moment a reveal is missing or the decode turns up forged, driving the
// Adjudicator through its DISPUTE -> FORCEEXEC -> CONCLUDED phases.
type FaithfulBuyer struct {
	ctx protocols.Context
}

func (b *FaithfulBuyer) Run(ctx context.Context) (party.ResourceUsage, error) {
	pc := b.ctx
	startBalance, err := pc.Chain.BalanceOf(ctx, pc.Chain.Address())
	if err != nil {
		return party.ResourceUsage{}, err
	}

	sess, err := buyerOpenChannel(ctx, pc)
	if err != nil {
		return party.ResourceUsage{}, err
	}

	n := iterationsFor(pc.Parameters)
	for i := 0; i < n; i++ {
		if err := buyerIteration(ctx, pc, sess); err != nil {
			break
		}
	}

	buyerClose(ctx, pc, sess)
	return finalizeUsage(ctx, pc, startBalance)
}

func buyerOpenChannel(ctx context.Context, pc protocols.Context) (*channelSession, error) {
	var msg openMessage
	if _, err := pc.Stream.ReadObject(&msg); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "receive open message", Cause: err}
	}
	params, err := fromWireParams(msg.Params)
	if err != nil {
		return nil, err
	}
	initState, err := fromWireState(msg.State, assetETH)
	if err != nil {
		return nil, err
	}
	sellerSig, err := hex.DecodeString(msg.Signature)
	if err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "decode seller open signature", Cause: err}
	}
	sellerAddr := common.Address(pc.Counterparty)
	if ok, err := channel.VerifyStateSig(initState, sellerSig, sellerAddr); err != nil || !ok {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "seller open signature does not verify"}
	}

	buyerSig, err := channel.SignState(initState, pc.Key)
	if err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "sign open acknowledgement", Cause: err}
	}
	if _, err := pc.Stream.WriteObject(openAckMessage{Signature: hex.EncodeToString(buyerSig)}); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "send open acknowledgement", Cause: err}
	}

	adjudicator := bindings.NewAdjudicator(common.HexToAddress(msg.AdjudicatorAddress), pc.Chain.Client())
	assetHolder := bindings.NewAssetHolderETH(common.HexToAddress(msg.AssetHolderAddress), pc.Chain.Client())

	channelID, err := params.ChannelID()
	if err != nil {
		return nil, &bfeerrors.ProtocolInitializationError{Message: "derive channel id", Cause: err}
	}
	n := iterationsFor(pc.Parameters)
	totalPrice := new(big.Int).Mul(pc.Price, big.NewInt(int64(n)))
	fundingID := channel.FundingID(channelID, pc.Chain.Address())
	depositOpts, err := pc.Chain.TransactOpts(ctx, totalPrice)
	if err != nil {
		return nil, err
	}
	if _, err := assetHolder.Deposit(depositOpts, fundingID); err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "deposit channel funding", Cause: err}
	}

	initApp, err := filesale.DecodeAppState(initState.AppData)
	if err != nil {
		return nil, &bfeerrors.ProtocolRuntimeError{Message: "decode initial app state", Cause: err}
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

func buyerIteration(ctx context.Context, pc protocols.Context, sess *channelSession) error {
	var msg initializeMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &msg); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "receive initialize message", Cause: err}
	}

	encodedTree, err := merkle.Obj2MT(msg.Tree, fecrypto.Keccak256)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode delivered tree", Cause: err}
	}
	if !encoding.IsEncoded(encodedTree) || hexDigest(encodedTree.Digest()) != msg.CiphertextRoot {
		return &bfeerrors.ProtocolRuntimeError{Message: "delivered tree does not match advertised ciphertext root"}
	}

	nextState, err := fromWireState(msg.State, assetETH)
	if err != nil {
		return err
	}
	sellerAddr := common.Address(pc.Counterparty)
	sellerSig, err := hex.DecodeString(msg.Signature)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode initialize signature", Cause: err}
	}
	if ok, err := channel.VerifyStateSig(nextState, sellerSig, sellerAddr); err != nil || !ok {
		return &bfeerrors.ProtocolRuntimeError{Message: "seller initialize signature does not verify"}
	}
	nextApp, err := filesale.DecodeAppState(nextState.AppData)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode proposed app state", Cause: err}
	}
	if nextApp.Phase != filesale.Accepted {
		return &bfeerrors.ProtocolRuntimeError{Message: "proposed sale did not reach ACCEPTED"}
	}

	buyerSig, err := channel.SignState(nextState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign accept state", Cause: err}
	}
	if _, err := pc.Stream.WriteObject(acceptMessage{State: msg.State, Signature: hex.EncodeToString(buyerSig)}); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "send accept message", Cause: err}
	}
	sess.current, sess.currentApp, sess.sigs = nextState, nextApp, [2][]byte{sellerSig, buyerSig}

	var reveal revealKeyMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &reveal); err != nil {
		return buyerDisputeNoReveal(ctx, pc, sess)
	}

	keyBytes, err := hex.DecodeString(reveal.Key)
	if err != nil || len(keyBytes) != 32 {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode revealed key"}
	}
	var key [32]byte
	copy(key[:], keyBytes)

	revealState, err := fromWireState(reveal.State, assetETH)
	if err != nil {
		return err
	}
	revealSig, err := hex.DecodeString(reveal.Signature)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode reveal signature", Cause: err}
	}
	if ok, err := channel.VerifyStateSig(revealState, revealSig, sellerAddr); err != nil || !ok {
		return &bfeerrors.ProtocolRuntimeError{Message: "seller reveal signature does not verify"}
	}
	revealApp, err := filesale.DecodeAppState(revealState.AppData)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode revealed app state", Cause: err}
	}
	if err := filesale.ValidTransition(sess.currentApp, revealApp); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "invalid key-reveal transition", Cause: err}
	}

	keyCommit := merkle.Digest(revealApp.KeyCommit)
	_, decodeErrs, err := encoding.DecodeAndVerify(encodedTree, key, &keyCommit, merkle.Digest(revealApp.FileRoot))
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "decode delivery", Cause: err}
	}
	kind, complainErr := encoding.ComplaintFor(decodeErrs)
	if kind != encoding.ComplaintNone {
		return buyerDisputeBadReveal(ctx, pc, sess, revealState, revealApp, sellerSig, encodedTree, kind, complainErr)
	}

	confirmState, confirmApp := filesale.Confirm(revealState, revealApp)
	buyerConfirmSig, err := channel.SignState(confirmState, pc.Key)
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "sign confirm state", Cause: err}
	}
	if _, err := pc.Stream.WriteObject(confirmMessage{State: toWireState(confirmState), Signature: hex.EncodeToString(buyerConfirmSig)}); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "send confirm message", Cause: err}
	}
	sess.current, sess.currentApp, sess.sigs = confirmState, confirmApp, [2][]byte{revealSig, buyerConfirmSig}
	return nil
}

// buyerDisputeNoReveal handles a seller that accepted payment and then
// vanished: register the last state both sides signed (still ACCEPTED, no
// price shift yet), drive the dispute to CONCLUDED, then withdraw the
// deposit back unchanged. There is nothing to complain about once
// FORCEEXEC opens, so the dispute loop only ever takes its timeout exits.
func buyerDisputeNoReveal(ctx context.Context, pc protocols.Context, sess *channelSession) error {
	return buyerDispute(ctx, pc, sess, sess.current, sess.currentApp, nil)
}

// buyerDisputeBadReveal handles a seller that revealed a key decoding to a
// forged tree: once the dispute loop reaches FORCEEXEC it force-executes
// the seller's own proposed key-reveal transition (it carries only the
// seller's signature, which is exactly what progress is for), files the
// matching complaint against the app contract, and proves the
// price-reverting COMPLAINT_SUCCESSFUL state before concluding.
func buyerDisputeBadReveal(ctx context.Context, pc protocols.Context, sess *channelSession, revealState channel.State, revealApp filesale.AppState, sellerSig []byte, encodedTree *merkle.Node, kind encoding.ComplaintKind, complainErr encoding.DecodingError) error {
	app := bindings.NewFileSaleApp(sess.params.App, pc.Chain.Client())
	complain := func(ctx context.Context) error {
		paramsEnc, err := sess.params.Encode()
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "encode params", Cause: err}
		}
		oldEnc, err := sess.current.Encode()
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "encode old state", Cause: err}
		}
		newEnc, err := revealState.Encode()
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "encode reveal state", Cause: err}
		}
		progressOpts, err := pc.Chain.TransactOpts(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := sess.adjudicator.Progress(progressOpts, paramsEnc, oldEnc, newEnc, big.NewInt(sellerIndex), sellerSig); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "force-execute key-reveal transition", Cause: err}
		}
		return fileComplaintOnChannel(ctx, pc, app, sess.current.ChannelID, encodedTree, kind, complainErr)
	}
	return buyerDispute(ctx, pc, sess, revealState, revealApp, complain)
}

// buyerDispute polls the Adjudicator's on-chain dispute phase to
// CONCLUDED, then withdraws. It mirrors the reference implementation's
// dispute loop: in DISPUTE, register a newer commonly-signed state when
// there's an incentive to, or conclude once the challenge window plus
// registration timeout has elapsed; in FORCEEXEC, run complain (if any)
// the first time the app state reaches KEY_REVEALED, or conclude once
// FORCEEXEC's own timeout has elapsed. complain is nil when there is
// nothing to prove on-chain (the no-reveal case).
func buyerDispute(ctx context.Context, pc protocols.Context, sess *channelSession, lastState channel.State, lastApp filesale.AppState, complain func(ctx context.Context) error) error {
	if err := registerDispute(ctx, pc, sess); err != nil {
		return err
	}

	for {
		dispute, err := sess.adjudicator.Disputes(&bind.CallOpts{Context: ctx}, lastState.ChannelID)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "query dispute phase", Cause: err}
		}
		incentive := lastState.Outcome.Balances[0][buyerIndex].Sign() > 0

		switch dispute.Phase {
		case bindings.DisputePhaseDispute:
			if incentive && lastState.Version > dispute.Version {
				sess.current, sess.currentApp = lastState, lastApp
				if err := registerDispute(ctx, pc, sess); err != nil {
					return err
				}
				continue
			}
			if incentive && chainTimeAfter(ctx, pc, dispute.Timeout, sess.params.ChallengeDuration+1) {
				if err := concludeOnly(ctx, pc, sess, lastState); err != nil {
					return err
				}
				continue
			}

		case bindings.DisputePhaseForceExec:
			if complain != nil && lastApp.Phase == filesale.KeyRevealed {
				if err := complain(ctx); err != nil {
					return err
				}
				finalState, finalApp := filesale.ComplaintSuccessfulState(lastState, lastApp, sellerIndex, buyerIndex)
				lastState, lastApp = finalState, finalApp
				complain = nil
				continue
			}
			if incentive && chainTimeAfter(ctx, pc, dispute.Timeout, 1) {
				if err := concludeOnly(ctx, pc, sess, lastState); err != nil {
					return err
				}
				continue
			}

		case bindings.DisputePhaseConcluded:
			sess.current, sess.currentApp = lastState, lastApp
			return withdrawBuyerBalance(ctx, pc, sess, lastState)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// chainTimeAfter reports whether the chain's latest block time is past
// timeout+marginSeconds, the same "has the challenge window actually
// elapsed on-chain" check chainadapter.Adapter.Wait makes against a
// deadline, applied here against the Adjudicator's own recorded timeout.
func chainTimeAfter(ctx context.Context, pc protocols.Context, timeout *big.Int, marginSeconds uint64) bool {
	header, err := pc.Chain.Client().HeaderByNumber(ctx, nil)
	if err != nil {
		return false
	}
	return header.Time >= timeout.Uint64()+marginSeconds
}

func registerDispute(ctx context.Context, pc protocols.Context, sess *channelSession) error {
	paramsEnc, err := sess.params.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode params", Cause: err}
	}
	stateEnc, err := sess.current.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode state", Cause: err}
	}
	opts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := sess.adjudicator.Register(opts, paramsEnc, stateEnc, sess.sigs[:]); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "register dispute", Cause: err}
	}
	return nil
}

// concludeOnly submits conclude without any signatures (the path the
// Adjudicator allows once a dispute's challenge window has actually
// elapsed), without also withdrawing; the caller advances the dispute loop
// and only withdraws once it observes CONCLUDED.
func concludeOnly(ctx context.Context, pc protocols.Context, sess *channelSession, state channel.State) error {
	paramsEnc, err := sess.params.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode params", Cause: err}
	}
	stateEnc, err := state.Encode()
	if err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "encode state", Cause: err}
	}
	opts, err := pc.Chain.TransactOpts(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := sess.adjudicator.Conclude(opts, paramsEnc, stateEnc); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "conclude channel state", Cause: err}
	}
	return nil
}

// fileComplaintOnChannel files the on-chain complaint matching kind
// against the app contract. A ComplaintKey verdict (the revealed key
// doesn't hash to the KeyCommit carried in the same app state) has no
// matching case and files nothing: the app contract exposes no
// complain-about-key entry point, and the reference buyer disputes purely
// by timeout in that situation rather than submitting a complaint.
func fileComplaintOnChannel(ctx context.Context, pc protocols.Context, app *bindings.FileSaleApp, channelID common.Hash, encodedTree *merkle.Node, kind encoding.ComplaintKind, complainErr encoding.DecodingError) error {
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
		if _, err := app.ComplainAboutLeaf(opts, channelID, digestsToArrays32(proof),
			big.NewInt(int64(e.IndexOut)), big.NewInt(int64(e.IndexIn1)), big.NewInt(int64(e.IndexIn2)), d1, d2); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit leaf complaint", Cause: err}
		}
	case encoding.ComplaintNode:
		e := complainErr.(*encoding.NodeDigestMismatch)
		proof, err := encodedTree.Proof(sliceCount + e.IndexOut)
		if err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "build node complaint proof", Cause: err}
		}
		if _, err := app.ComplainAboutNode(opts, channelID, digestsToArrays32(proof),
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
		if _, err := app.ComplainAboutRoot(opts, channelID, digestsToArrays32(proof), big.NewInt(int64(e.LeafIndex)), leafData); err != nil {
			return &bfeerrors.ProtocolRuntimeError{Message: "submit root complaint", Cause: err}
		}
	}
	return nil
}

func digestsToArrays32(ds []merkle.Digest) [][32]byte {
	out := make([][32]byte, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

// concludeAndWithdraw concludes the channel on the happy-path close, then
// withdraws. The dispute loop never calls this directly: it already
// concludes via concludeOnly as soon as a challenge window elapses, then
// withdraws once it observes CONCLUDED (withdrawBuyerBalance), to avoid
// submitting a second, redundant conclude.
func concludeAndWithdraw(ctx context.Context, pc protocols.Context, sess *channelSession, finalState channel.State, sigs [2][]byte) error {
	if err := concludeOnly(ctx, pc, sess, finalState); err != nil {
		return err
	}
	return withdrawBuyerBalance(ctx, pc, sess, finalState)
}

func withdrawBuyerBalance(ctx context.Context, pc protocols.Context, sess *channelSession, finalState channel.State) error {
	buyerAddr := pc.Chain.Address()
	balance := finalState.Outcome.Balances[0][buyerIndex]
	if balance.IsZero() {
		return nil
	}
	withdrawal := channel.WithdrawalAuth{
		ChannelID:   finalState.ChannelID,
		Participant: buyerAddr,
		Receiver:    buyerAddr,
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
	if _, err := sess.assetHolder.Withdraw(withdrawOpts, finalState.ChannelID, buyerAddr, buyerAddr, balance.ToBig(), sig); err != nil {
		return &bfeerrors.ProtocolRuntimeError{Message: "withdraw buyer balance", Cause: err}
	}
	return nil
}

func buyerClose(ctx context.Context, pc protocols.Context, sess *channelSession) {
	var closeMsg closeMessage
	if err := readWithTimeout(ctx, pc.Stream, time.Now().Add(pc.Timeout), &closeMsg); err != nil {
		return
	}
	finalState, err := fromWireState(closeMsg.State, assetETH)
	if err != nil {
		return
	}
	sellerAddr := common.Address(pc.Counterparty)
	sellerSig, err := hex.DecodeString(closeMsg.Signature)
	if err != nil {
		return
	}
	if ok, err := channel.VerifyStateSig(finalState, sellerSig, sellerAddr); err != nil || !ok {
		return
	}
	buyerSig, err := channel.SignState(finalState, pc.Key)
	if err != nil {
		return
	}
	pc.Stream.WriteObject(closeMessage{State: toWireState(finalState), Signature: hex.EncodeToString(buyerSig)})
	concludeAndWithdraw(ctx, pc, sess, finalState, [2][]byte{sellerSig, buyerSig})
}
