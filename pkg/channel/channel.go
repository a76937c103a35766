// Package channel implements the Perun-style state channel primitives used
// by the state-channel variants of the protocol: ABI encoding of channel
// parameters and state exactly as the on-chain Adjudicator expects it,
// channel- and funding-ID derivation, and EIP-191 state signing.
package channel

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	abiUint256    abi.Type
	abiAddress    abi.Type
	abiAddressArr abi.Type
	abiBytes      abi.Type
	abiBytes32    abi.Type
	abiBool       abi.Type
)

func init() {
	var err error
	if abiUint256, err = abi.NewType("uint256", "", nil); err != nil {
		panic(err)
	}
	if abiAddress, err = abi.NewType("address", "", nil); err != nil {
		panic(err)
	}
	if abiAddressArr, err = abi.NewType("address[]", "", nil); err != nil {
		panic(err)
	}
	if abiBytes, err = abi.NewType("bytes", "", nil); err != nil {
		panic(err)
	}
	if abiBytes32, err = abi.NewType("bytes32", "", nil); err != nil {
		panic(err)
	}
	if abiBool, err = abi.NewType("bool", "", nil); err != nil {
		panic(err)
	}
}

// Params are the immutable parameters of a channel, fixed for its entire
// lifetime and hashed into the ChannelID.
type Params struct {
	ChallengeDuration uint64
	Nonce             [32]byte
	// Participants[0] is always the seller, Participants[1] the buyer,
	// matching every protocol message in this repository.
	Participants   [2]common.Address
	App            common.Address
	LedgerChannel  bool
	VirtualChannel bool
}

// Encode ABI-encodes Params the same way the Adjudicator contract's
// channelID(Params) view function does.
func (p Params) Encode() ([]byte, error) {
	args := abi.Arguments{
		{Type: abiUint256},
		{Type: abiBytes32},
		{Type: abiAddressArr},
		{Type: abiAddress},
		{Type: abiBool},
		{Type: abiBool},
	}
	return args.Pack(
		new(big.Int).SetUint64(p.ChallengeDuration),
		p.Nonce,
		[]common.Address{p.Participants[0], p.Participants[1]},
		p.App,
		p.LedgerChannel,
		p.VirtualChannel,
	)
}

// ChannelID derives the channel's identifier: keccak256 of the ABI-encoded
// Params.
func (p Params) ChannelID() (common.Hash, error) {
	enc, err := p.Encode()
	if err != nil {
		return common.Hash{}, fmt.Errorf("channel: encode params: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// FundingID derives the identifier the AssetHolder uses to track a single
// participant's deposit into a channel.
func FundingID(channelID common.Hash, participant common.Address) common.Hash {
	args := abi.Arguments{{Type: abiBytes32}, {Type: abiAddress}}
	enc, err := args.Pack(channelID, participant)
	if err != nil {
		// Both arguments are fixed-width; Pack only fails on type mismatch,
		// which can't happen with the literal types above.
		panic(fmt.Sprintf("channel: pack funding id: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}

// SubAlloc is a sub-allocation of funds locked into a nested (virtual)
// channel. Fairswap-bench never opens virtual channels, but the type is
// part of the on-chain Allocation ABI shape and must still encode
// correctly when Locked is empty.
type SubAlloc struct {
	ID       common.Hash
	Balances []*uint256.Int
}

func (s SubAlloc) encode() ([]byte, error) {
	args := abi.Arguments{{Type: abiBytes32}, {Type: abiUint256Arr()}}
	return args.Pack(s.ID, uint256SliceToBig(s.Balances))
}

// Allocation describes how a channel's locked funds are distributed among
// its participants.
type Allocation struct {
	Assets   []common.Address
	Balances [][]*uint256.Int // Balances[assetIndex][participantIndex]
	Locked   []SubAlloc
}

func (a Allocation) encode() ([]byte, error) {
	args := abi.Arguments{
		{Type: abiAddressArr},
		{Type: abiUint256ArrArr()},
		{Type: abiBytes},
	}
	balances := make([][]*big.Int, len(a.Balances))
	for i, row := range a.Balances {
		balances[i] = uint256SliceToBig(row)
	}
	var locked []byte
	for _, sub := range a.Locked {
		enc, err := sub.encode()
		if err != nil {
			return nil, fmt.Errorf("channel: encode sub-allocation: %w", err)
		}
		locked = append(locked, enc...)
	}
	return args.Pack(a.Assets, balances, locked)
}

// State is a single off-chain channel state: a version number, a funds
// outcome, and opaque application data (the FileSale app state, ABI
// encoded).
type State struct {
	ChannelID common.Hash
	Version   uint64
	Outcome   Allocation
	AppData   []byte
	IsFinal   bool
}

// Encode ABI-encodes State the same way the Adjudicator contract's
// hashState / channelID-derivation machinery does.
func (s State) Encode() ([]byte, error) {
	args := abi.Arguments{
		{Type: abiBytes32},
		{Type: abiUint64()},
		{Type: abiBytes},
		{Type: abiBytes},
		{Type: abiBool},
	}
	outcome, err := s.Outcome.encode()
	if err != nil {
		return nil, fmt.Errorf("channel: encode outcome: %w", err)
	}
	return args.Pack(s.ChannelID, s.Version, outcome, s.AppData, s.IsFinal)
}

// Hash returns keccak256(Encode()), the digest both parties sign.
func (s State) Hash() (common.Hash, error) {
	enc, err := s.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// SignedState pairs a (Params, State) with both participants' signatures,
// Sigs[0] for the seller and Sigs[1] for the buyer.
type SignedState struct {
	Params Params
	State  State
	Sigs   [2][]byte
}

// SignState produces an EIP-191 ("personal_sign") signature over the
// state's hash, matching Account.sign_message(encode_defunct(hash), ...)
// in the reference implementation and the Adjudicator contract's use of
// ECDSA.toEthSignedMessageHash.
func SignState(s State, key *ecdsa.PrivateKey) ([]byte, error) {
	hash, err := s.Hash()
	if err != nil {
		return nil, err
	}
	return signEIP191(hash, key)
}

// VerifyStateSig reports whether sig is a valid EIP-191 signature over
// s.Hash() by signer.
func VerifyStateSig(s State, sig []byte, signer common.Address) (bool, error) {
	hash, err := s.Hash()
	if err != nil {
		return false, err
	}
	return verifyEIP191(hash, sig, signer)
}

// WithdrawalAuth authorizes the AssetHolder to pay out a participant's
// channel outcome to an arbitrary receiver address.
type WithdrawalAuth struct {
	ChannelID   common.Hash
	Participant common.Address
	Receiver    common.Address
	Amount      *uint256.Int
}

func (w WithdrawalAuth) Encode() ([]byte, error) {
	args := abi.Arguments{
		{Type: abiBytes32},
		{Type: abiAddress},
		{Type: abiAddress},
		{Type: abiUint256},
	}
	return args.Pack(w.ChannelID, w.Participant, w.Receiver, w.Amount.ToBig())
}

// SignWithdrawalAuth signs the withdrawal authorization with the
// participant's key (EIP-191, like SignState).
func SignWithdrawalAuth(w WithdrawalAuth, key *ecdsa.PrivateKey) ([]byte, error) {
	enc, err := w.Encode()
	if err != nil {
		return nil, err
	}
	hash := crypto.Keccak256Hash(enc)
	return signEIP191(hash, key)
}

func signEIP191(hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	prefixed := accounts_textHash(hash)
	sig, err := crypto.Sign(prefixed.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("channel: sign: %w", err)
	}
	// go-ethereum returns a recovery id in [0,1]; Solidity's ecrecover
	// expects v in [27,28].
	sig[64] += 27
	return sig, nil
}

func verifyEIP191(hash common.Hash, sig []byte, signer common.Address) (bool, error) {
	if len(sig) != 65 {
		return false, fmt.Errorf("channel: signature must be 65 bytes, got %d", len(sig))
	}
	prefixed := accounts_textHash(hash)
	sigCopy := append([]byte(nil), sig...)
	if sigCopy[64] >= 27 {
		sigCopy[64] -= 27
	}
	pub, err := crypto.SigToPub(prefixed.Bytes(), sigCopy)
	if err != nil {
		return false, fmt.Errorf("channel: recover signer: %w", err)
	}
	recovered := crypto.PubkeyToAddress(*pub)
	return recovered == signer, nil
}

// accounts_textHash mirrors go-ethereum/accounts.TextHash (the canonical
// EIP-191 "\x19Ethereum Signed Message:\n32" prefix), duplicated locally to
// avoid importing the much larger accounts package for a single hash.
func accounts_textHash(hash common.Hash) common.Hash {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n32%s", string(hash[:]))
	return crypto.Keccak256Hash([]byte(msg))
}

func uint256SliceToBig(in []*uint256.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, v := range in {
		out[i] = v.ToBig()
	}
	return out
}

// The ABI library requires array/nested-array types to be constructed
// fresh (NewType panics if given a stateful component twice in some
// versions); small helpers keep the Encode methods above readable.
func abiUint256Arr() abi.Type {
	t, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func abiUint256ArrArr() abi.Type {
	t, err := abi.NewType("uint256[][]", "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func abiUint64() abi.Type {
	t, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	return t
}
