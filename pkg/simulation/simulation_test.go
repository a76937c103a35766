package simulation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/fairswap-bench/pkg/config"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	require.Equal(t, 0, s.Count)
	require.Equal(t, 0.0, s.MeanReal)
	require.Equal(t, 0.0, s.StdevReal)
}

func TestSummarizeSingleRecordHasZeroStdev(t *testing.T) {
	records := []config.IterationRecord{{SRealSeconds: 1, BRealSeconds: 1}}
	s := Summarize(records)
	require.Equal(t, 1, s.Count)
	require.InDelta(t, 2.0, s.MeanReal, 1e-9)
	require.Equal(t, 0.0, s.StdevReal)
}

func TestSummarizeMeanAndStdev(t *testing.T) {
	records := []config.IterationRecord{
		{SRealSeconds: 1, BRealSeconds: 1}, // total 2
		{SRealSeconds: 2, BRealSeconds: 2}, // total 4
		{SRealSeconds: 3, BRealSeconds: 3}, // total 6
	}
	s := Summarize(records)
	require.Equal(t, 3, s.Count)
	require.InDelta(t, 4.0, s.MeanReal, 1e-9)
	require.Greater(t, s.StdevReal, 0.0)
}
