// Package filesale implements the FileSale application's on-chain state
// machine: the ABI-encoded app data carried inside every channel.State,
// and the phase transitions seller and buyer strategies drive it through.
package filesale

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
)

// Phase is the FileSale application's state, matching the Solidity
// contract's Phase enum.
type Phase uint8

const (
	// Idle is the state both before a sale starts and after one
	// completes cleanly (seller countersigned, channel moves to the next
	// iteration or closes).
	Idle Phase = iota
	// Accepted means the buyer has paid into escrow and is waiting for
	// the seller to reveal the decryption key.
	Accepted
	// KeyRevealed means the seller has revealed the key and the price
	// has moved from buyer to seller in the proposed outcome; the buyer
	// must now decode and either confirm or complain.
	KeyRevealed
	// ComplaintSuccessful is reached only via on-chain dispute
	// resolution, after a validated complaint reverts the price
	// transfer.
	ComplaintSuccessful
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Accepted:
		return "ACCEPTED"
	case KeyRevealed:
		return "KEY_REVEALED"
	case ComplaintSuccessful:
		return "COMPLAINT_SUCCESSFUL"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

var (
	abiBytes32 abi.Type
	abiUint    abi.Type
)

func init() {
	var err error
	if abiBytes32, err = abi.NewType("bytes32", "", nil); err != nil {
		panic(err)
	}
	if abiUint, err = abi.NewType("uint256", "", nil); err != nil {
		panic(err)
	}
}

// AppState is the FileSale contract's application-specific data, ABI
// encoded as (bytes32,bytes32,bytes32,bytes32,uint256,uint256) and carried
// verbatim inside channel.State.AppData.
type AppState struct {
	FileRoot       common.Hash
	CiphertextRoot common.Hash
	KeyCommit      common.Hash
	Key            common.Hash
	Price          *uint256.Int
	Phase          Phase
}

// NewAppState returns the channel's initial application state: both roots
// and the key commitment fixed for the sale, no key revealed, price set,
// phase IDLE.
func NewAppState(fileRoot, ciphertextRoot, keyCommit common.Hash, price *uint256.Int) AppState {
	return AppState{
		FileRoot:       fileRoot,
		CiphertextRoot: ciphertextRoot,
		KeyCommit:      keyCommit,
		Price:          price,
		Phase:          Idle,
	}
}

// Encode ABI-encodes the app state the same way the on-chain contract
// does, for embedding into channel.State.AppData.
func (s AppState) Encode() ([]byte, error) {
	args := abi.Arguments{
		{Type: abiBytes32}, {Type: abiBytes32}, {Type: abiBytes32}, {Type: abiBytes32},
		{Type: abiUint}, {Type: abiUint},
	}
	return args.Pack(
		s.FileRoot, s.CiphertextRoot, s.KeyCommit, s.Key,
		s.Price.ToBig(), new(big.Int).SetUint64(uint64(s.Phase)),
	)
}

// DecodeAppState decodes app state from its ABI-encoded form.
func DecodeAppState(data []byte) (AppState, error) {
	args := abi.Arguments{
		{Type: abiBytes32}, {Type: abiBytes32}, {Type: abiBytes32}, {Type: abiBytes32},
		{Type: abiUint}, {Type: abiUint},
	}
	values, err := args.Unpack(data)
	if err != nil {
		return AppState{}, fmt.Errorf("filesale: decode app state: %w", err)
	}
	if len(values) != 6 {
		return AppState{}, fmt.Errorf("filesale: expected 6 abi values, got %d", len(values))
	}
	price, ok := values[4].(*big.Int)
	if !ok {
		return AppState{}, fmt.Errorf("filesale: price field is not a uint256")
	}
	phaseBig, ok := values[5].(*big.Int)
	if !ok {
		return AppState{}, fmt.Errorf("filesale: phase field is not a uint256")
	}
	return AppState{
		FileRoot:       values[0].([32]byte),
		CiphertextRoot: values[1].([32]byte),
		KeyCommit:      values[2].([32]byte),
		Key:            values[3].([32]byte),
		Price:          uint256.MustFromBig(price),
		Phase:          Phase(phaseBig.Uint64()),
	}, nil
}

// Equal reports whether two app states are byte-for-byte identical, the
// same comparison the reference implementation makes via tuple equality.
func (s AppState) Equal(other AppState) bool {
	return s.FileRoot == other.FileRoot &&
		s.CiphertextRoot == other.CiphertextRoot &&
		s.KeyCommit == other.KeyCommit &&
		s.Key == other.Key &&
		s.Price.Eq(other.Price) &&
		s.Phase == other.Phase
}

// ValidTransition mirrors the on-chain app's validTransition check,
// letting strategies reject an invalid proposal before spending a
// signature round-trip instead of discovering the problem only via an
// on-chain dispute. Every transition must also bump the channel version by
// exactly one; that is not checked here, since only the two app states are
// visible.
func ValidTransition(from, to AppState) error {
	switch {
	case from.FileRoot != to.FileRoot, from.CiphertextRoot != to.CiphertextRoot, from.KeyCommit != to.KeyCommit:
		return fmt.Errorf("filesale: file root, ciphertext root and key commitment are immutable for a sale")
	case !from.Price.Eq(to.Price):
		return fmt.Errorf("filesale: price is immutable for a sale")
	}

	switch from.Phase {
	case Idle:
		if to.Phase != Accepted {
			return fmt.Errorf("filesale: IDLE may only transition to ACCEPTED, got %s", to.Phase)
		}
	case Accepted:
		if to.Phase != KeyRevealed {
			return fmt.Errorf("filesale: ACCEPTED may only transition to KEY_REVEALED, got %s", to.Phase)
		}
		var zero common.Hash
		if to.Key == zero {
			return fmt.Errorf("filesale: KEY_REVEALED transition must set a non-zero key")
		}
	case KeyRevealed:
		if to.Phase != Idle && to.Phase != ComplaintSuccessful {
			return fmt.Errorf("filesale: KEY_REVEALED may only transition to IDLE (confirm) or COMPLAINT_SUCCESSFUL, got %s", to.Phase)
		}
	case ComplaintSuccessful:
		return fmt.Errorf("filesale: COMPLAINT_SUCCESSFUL is terminal for this iteration")
	default:
		return fmt.Errorf("filesale: unknown phase %d", from.Phase)
	}
	return nil
}

// Accept builds the proposed channel.State for the ACCEPTED transition:
// the buyer's deposit moves into escrow by the caller before this call
// (the Allocation doesn't change here, only the app phase does), version
// bumps by one.
func Accept(prev channel.State, appState AppState) (channel.State, AppState) {
	next := appState
	next.Phase = Accepted
	return bumpVersion(prev, next), next
}

// RevealKey builds the proposed channel.State for the KEY_REVEALED
// transition: the seller reveals key and the sale price moves from the
// buyer's balance to the seller's, anticipating a successful sale. A
// successful buyer complaint later reverts this shift via
// ComplaintSuccessfulState.
func RevealKey(prev channel.State, appState AppState, key common.Hash, sellerIndex, buyerIndex int) (channel.State, AppState) {
	next := appState
	next.Phase = KeyRevealed
	next.Key = key

	out := cloneOutcome(prev.Outcome)
	for asset := range out.Balances {
		out.Balances[asset][sellerIndex] = new(uint256.Int).Add(out.Balances[asset][sellerIndex], appState.Price)
		out.Balances[asset][buyerIndex] = new(uint256.Int).Sub(out.Balances[asset][buyerIndex], appState.Price)
	}

	state := bumpVersion(prev, next)
	state.Outcome = out
	return state, next
}

// Confirm builds the proposed channel.State for the buyer's silent
// confirmation after a clean decode: phase returns to IDLE for the next
// iteration, outcome (with the price already shifted by RevealKey) is
// unchanged.
func Confirm(prev channel.State, appState AppState) (channel.State, AppState) {
	next := appState
	next.Phase = Idle
	return bumpVersion(prev, next), next
}

// ComplaintSuccessfulState builds the local state a buyer proves during
// FORCEEXEC after a validated on-chain complaint: the price shift from
// RevealKey is undone, phase moves to COMPLAINT_SUCCESSFUL.
func ComplaintSuccessfulState(prev channel.State, appState AppState, sellerIndex, buyerIndex int) (channel.State, AppState) {
	next := appState
	next.Phase = ComplaintSuccessful

	out := cloneOutcome(prev.Outcome)
	for asset := range out.Balances {
		out.Balances[asset][sellerIndex] = new(uint256.Int).Sub(out.Balances[asset][sellerIndex], appState.Price)
		out.Balances[asset][buyerIndex] = new(uint256.Int).Add(out.Balances[asset][buyerIndex], appState.Price)
	}

	state := bumpVersion(prev, next)
	state.Outcome = out
	return state, next
}

func bumpVersion(prev channel.State, nextApp AppState) channel.State {
	encoded, err := nextApp.Encode()
	if err != nil {
		// Every field is a fixed-width or uint256 value prepared by this
		// package; encoding cannot fail.
		panic(fmt.Sprintf("filesale: encode app state: %v", err))
	}
	return channel.State{
		ChannelID: prev.ChannelID,
		Version:   prev.Version + 1,
		Outcome:   prev.Outcome,
		AppData:   encoded,
		IsFinal:   prev.IsFinal,
	}
}

func cloneOutcome(in channel.Allocation) channel.Allocation {
	out := channel.Allocation{
		Assets: append([]common.Address(nil), in.Assets...),
		Locked: append([]channel.SubAlloc(nil), in.Locked...),
	}
	out.Balances = make([][]*uint256.Int, len(in.Balances))
	for i, row := range in.Balances {
		newRow := make([]*uint256.Int, len(row))
		for j, v := range row {
			newRow[j] = new(uint256.Int).Set(v)
		}
		out.Balances[i] = newRow
	}
	return out
}
