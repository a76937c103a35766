package statechannel

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
)

func TestToFromWireParamsRoundTrip(t *testing.T) {
	params := channel.Params{
		ChallengeDuration: 60,
		Nonce:             [32]byte{1, 2, 3},
		Participants: [2]common.Address{
			common.HexToAddress("0x1111111111111111111111111111111111111111"),
			common.HexToAddress("0x2222222222222222222222222222222222222222"),
		},
		App:           common.HexToAddress("0x3333333333333333333333333333333333333333"),
		LedgerChannel: true,
	}

	got, err := fromWireParams(toWireParams(params))
	require.NoError(t, err)
	require.Equal(t, params.ChallengeDuration, got.ChallengeDuration)
	require.Equal(t, params.Nonce, got.Nonce)
	require.Equal(t, params.Participants, got.Participants)
	require.Equal(t, params.App, got.App)
}

func TestToFromWireStateRoundTrip(t *testing.T) {
	asset := common.Address{}
	state := channel.State{
		ChannelID: common.HexToHash("0xabc"),
		Version:   3,
		Outcome: channel.Allocation{
			Assets:   []common.Address{asset},
			Balances: [][]*uint256.Int{{uint256.NewInt(10), uint256.NewInt(20)}},
		},
		AppData: []byte{0xde, 0xad, 0xbe, 0xef},
		IsFinal: true,
	}

	got, err := fromWireState(toWireState(state), asset)
	require.NoError(t, err)
	require.Equal(t, state.ChannelID, got.ChannelID)
	require.Equal(t, state.Version, got.Version)
	require.Equal(t, state.AppData, got.AppData)
	require.True(t, got.IsFinal)
	require.Equal(t, state.Outcome.Balances[0][sellerIndex].Uint64(), got.Outcome.Balances[0][sellerIndex].Uint64())
	require.Equal(t, state.Outcome.Balances[0][buyerIndex].Uint64(), got.Outcome.Balances[0][buyerIndex].Uint64())
}

func TestSliceCountForRoundsUpToPowerOfTwoWithMinimumTwo(t *testing.T) {
	require.Equal(t, 2, sliceCountFor(0))
	require.Equal(t, 2, sliceCountFor(32))
	require.Equal(t, 2, sliceCountFor(33))
	require.Equal(t, 4, sliceCountFor(65))
	require.Equal(t, 8, sliceCountFor(200))
}

func TestIterationsForDefaultsToOne(t *testing.T) {
	require.Equal(t, 1, iterationsFor(nil))
	require.Equal(t, 1, iterationsFor(map[string]string{"iterations": "not-a-number"}))
	require.Equal(t, 5, iterationsFor(map[string]string{"iterations": "5"}))
}

func TestResetAppStateStartsInAcceptedPhase(t *testing.T) {
	app := resetAppState(common.HexToHash("0x1"), common.HexToHash("0x2"), common.HexToHash("0x3"), uint256.NewInt(42))
	require.Equal(t, uint8(1), uint8(app.Phase))
}
