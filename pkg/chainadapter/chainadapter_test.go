package chainadapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRetryConfig(t *testing.T) {
	require.Equal(t, 3, DefaultRetryConfig.MaxAttempts)
	require.Greater(t, DefaultRetryConfig.MaxBackoff, DefaultRetryConfig.InitialBackoff)
}

func TestAdapterAddressIsZeroWithoutKey(t *testing.T) {
	a := &Adapter{}
	require.Zero(t, a.Address())
	require.Equal(t, 0, a.TxCount())
	require.Equal(t, uint64(0), a.TxFeesGas())
}
