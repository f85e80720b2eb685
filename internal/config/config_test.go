package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_FileOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: "postgres://primary/db"
blockscout:
  url: "postgres://blockscout/db"
settings:
  max_log_batch_size: 500
  max_concurrency_for_log_process: 8
l1s:
  ethereum:
    chain_id: 1
    http_rpc_url: "https://l1.example"
  solana:
    chain_id: 101
    http_rpc_url: "https://svm.example"
l2:
  chain_id: 9999
  http_rpc_url: "https://l2.example"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://primary/db", cfg.Database.URL)
	require.Equal(t, uint64(1), cfg.L1s.Ethereum.Common.ChainID)
	require.Equal(t, uint64(101), cfg.L1s.Solana.Common.ChainID)
	require.Equal(t, 500, cfg.Settings.MaxLogBatchSize)
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: "postgres://file-value/db"
`), 0o644))

	t.Setenv("DATABASE__URL", "postgres://env-value/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://env-value/db", cfg.Database.URL)
}
