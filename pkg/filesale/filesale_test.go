package filesale

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
)

func TestAppStateEncodeDecodeRoundTrip(t *testing.T) {
	var fileRoot, ctRoot, commit common.Hash
	fileRoot[0], ctRoot[0], commit[0] = 1, 2, 3

	s := NewAppState(fileRoot, ctRoot, commit, uint256.NewInt(1000))
	enc, err := s.Encode()
	require.NoError(t, err)

	decoded, err := DecodeAppState(enc)
	require.NoError(t, err)
	require.True(t, s.Equal(decoded))
}

func TestValidTransition(t *testing.T) {
	var fileRoot, ctRoot, commit, key common.Hash
	fileRoot[0] = 1

	idle := NewAppState(fileRoot, ctRoot, commit, uint256.NewInt(10))
	accepted := idle
	accepted.Phase = Accepted
	require.NoError(t, ValidTransition(idle, accepted))

	bogus := idle
	bogus.Phase = KeyRevealed
	require.Error(t, ValidTransition(idle, bogus))

	key[0] = 0xAB
	revealed := accepted
	revealed.Phase = KeyRevealed
	revealed.Key = key
	require.NoError(t, ValidTransition(accepted, revealed))

	noKey := accepted
	noKey.Phase = KeyRevealed
	require.Error(t, ValidTransition(accepted, noKey))
}

func baseChannelState() channel.State {
	return channel.State{
		Outcome: channel.Allocation{
			Balances: [][]*uint256.Int{{uint256.NewInt(0), uint256.NewInt(1000)}},
		},
		Version: 1,
	}
}

func TestRevealKeyShiftsPriceAndConfirmPreservesIt(t *testing.T) {
	var fileRoot, ctRoot, commit, key common.Hash
	app := NewAppState(fileRoot, ctRoot, commit, uint256.NewInt(100))
	app.Phase = Accepted
	prev := baseChannelState()

	key[0] = 1
	revealedState, revealedApp := RevealKey(prev, app, key, 0, 1)
	require.Equal(t, prev.Version+1, revealedState.Version)
	require.True(t, revealedState.Outcome.Balances[0][0].Eq(uint256.NewInt(100)))
	require.True(t, revealedState.Outcome.Balances[0][1].Eq(uint256.NewInt(900)))
	require.Equal(t, KeyRevealed, revealedApp.Phase)

	confirmedState, confirmedApp := Confirm(revealedState, revealedApp)
	require.Equal(t, Idle, confirmedApp.Phase)
	require.True(t, confirmedState.Outcome.Balances[0][0].Eq(uint256.NewInt(100)))
}

func TestComplaintSuccessfulRevertsShift(t *testing.T) {
	var fileRoot, ctRoot, commit, key common.Hash
	app := NewAppState(fileRoot, ctRoot, commit, uint256.NewInt(100))
	app.Phase = Accepted
	prev := baseChannelState()

	key[0] = 1
	revealedState, revealedApp := RevealKey(prev, app, key, 0, 1)

	reverted, revertedApp := ComplaintSuccessfulState(revealedState, revealedApp, 0, 1)
	require.Equal(t, ComplaintSuccessful, revertedApp.Phase)
	require.True(t, reverted.Outcome.Balances[0][0].Eq(uint256.NewInt(0)))
	require.True(t, reverted.Outcome.Balances[0][1].Eq(uint256.NewInt(1000)))
}
