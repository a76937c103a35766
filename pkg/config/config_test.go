package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSVWriterWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	rec := IterationRecord{
		Start:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SRealSeconds:  1.5,
		BTxCount:      2,
		SFundsDiffEth: -0.01,
	}
	require.NoError(t, w.WriteRecord(rec))
	require.NoError(t, w.WriteRecord(rec))
	require.NoError(t, w.Flush())

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	require.Equal(t, 3, lines) // header + 2 rows
	require.Contains(t, buf.String(), "S>B bytes")
}

func TestLoadEnvironmentsDefaultsEndpointsToOperator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
operator:
  endpoint:
    url: http://example:8545/
  wallet:
    address: "0xabc"
seller:
  wallet:
    privateKey: "0xdef"
buyer:
  wallet:
    address: "0x123"
`), 0o644))

	cfg, err := LoadEnvironments(path)
	require.NoError(t, err)
	require.Equal(t, "http://example:8545/", cfg.Operator.Endpoint.URL)
	require.Equal(t, "http://example:8545/", cfg.Seller.Endpoint.URL)
	require.Equal(t, "http://example:8545/", cfg.Buyer.Endpoint.URL)
	require.Equal(t, "0xdef", cfg.Seller.Wallet.PrivateKey)
}

func TestLoadEnvironmentsMissingFile(t *testing.T) {
	_, err := LoadEnvironments(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadBulkConfigDefaultsIterations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bulk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
protocols:
  - protocol: fairswap
    sellerStrategy: faithful
    buyerStrategy: faithful
sizes: [1024, 4096]
price: 100
`), 0o644))

	cfg, err := LoadBulkConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Iterations)
	require.Equal(t, []int64{1024, 4096}, cfg.FileSizes)
	require.Len(t, cfg.Protocols, 1)
	require.Equal(t, "fairswap", cfg.Protocols[0].Protocol)
}
