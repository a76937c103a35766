package party

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteResultSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	usage := ResourceUsage{TxCount: 3, TxFeesGas: 21000, BalanceDiffEth: -0.5}

	require.NoError(t, WriteResult(path, usage, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"tx_count":3`)
	require.NotContains(t, string(data), `"error"`)
}

func TestWriteResultCarriesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, WriteResult(path, ResourceUsage{}, errBoom{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"error":"boom"`)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestNewSocketPairReturnsDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	left, right, err := NewSocketPair(dir)
	require.NoError(t, err)
	require.NotEqual(t, left, right)
	require.Equal(t, filepath.Join(dir, "seller.sock"), left)
	require.Equal(t, filepath.Join(dir, "buyer.sock"), right)
}

func TestListenUnixThenDial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")
	l, err := ListenUnix(path)
	require.NoError(t, err)
	defer l.Close()

	require.FileExists(t, path)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	conn.Close()
}
