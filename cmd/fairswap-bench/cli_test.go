package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseParamsAcceptsKeyValuePairs(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=2"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, params)
}

func TestParseParamsRejectsMissingEquals(t *testing.T) {
	_, err := parseParams([]string{"not-a-pair"})
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := parseLogLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl)

	_, err = parseLogLevel("NOT_A_LEVEL")
	require.Error(t, err)
}

func TestEnsureDataFileCreatesThenReuses(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "data-%d.bin")

	path, err := ensureDataFile(template, 128)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(128), info.Size())

	// second call should not error and should reuse the same file.
	path2, err := ensureDataFile(template, 128)
	require.NoError(t, err)
	require.Equal(t, path, path2)
}
