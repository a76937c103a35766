package statechannel

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBytecodeParamDecodesHex(t *testing.T) {
	raw, err := bytecodeParam(map[string]string{"x": "0xdeadbeef"}, "x")
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw)
}

func TestBytecodeParamMissingKeyErrors(t *testing.T) {
	_, err := bytecodeParam(map[string]string{}, "missing")
	require.Error(t, err)
}

func TestInitialOutcomePutsEntireStakeOnBuyerSide(t *testing.T) {
	total := uint256.NewInt(1000)
	outcome := initialOutcome(total)
	require.Len(t, outcome.Assets, 1)
	require.True(t, outcome.Balances[0][sellerIndex].IsZero())
	require.Equal(t, total.Uint64(), outcome.Balances[0][buyerIndex].Uint64())
}

func TestRandomNonceIsNonDeterministic(t *testing.T) {
	a, err := randomNonce()
	require.NoError(t, err)
	b, err := randomNonce()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
