// Package config loads the indexer's layered configuration: an optional
// config.yaml overlaid with environment variables, where nested keys use
// "__" as a separator (DATABASE__URL for database.url) -- modelled on
// original_source/crates/common/src/config.rs's
// Config::builder().add_source(File::with_name("config.yaml").required(false))
// .add_source(Environment::default().separator("__").list_separator(",")).
// An environment variable takes precedence over the file, but only for a
// key the file sets: a variable for a key the file leaves out is not read,
// and environment values are not split into lists on ",".
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig points at one Postgres-compatible store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ChainConfig is the common shape every chain adapter's config embeds,
// mirroring config.rs's ChainConfig.
type ChainConfig struct {
	HTTPRPCURL           string `mapstructure:"http_rpc_url"`
	WSRPCURL             string `mapstructure:"ws_rpc_url"`
	ChainID              uint64 `mapstructure:"chain_id"`
	StartBlock           uint64 `mapstructure:"start_block"`
	BlockSyncBatchSize   uint64 `mapstructure:"block_sync_batch_size"`
	BlockTimeMs          uint64 `mapstructure:"block_time_ms"`
}

// EvmConfig configures an EVM L1 or L2 chain adapter.
type EvmConfig struct {
	Common              ChainConfig `mapstructure:",squash"`
	BridgeAddress       string      `mapstructure:"bridge_address"`
	Erc20GatewayAddress string      `mapstructure:"erc20_gateway_address"`
}

// SvmConfig configures the Solana-like L1 chain adapter.
type SvmConfig struct {
	Common                      ChainConfig `mapstructure:",squash"`
	TokensGatewayProgramAddress string      `mapstructure:"tokens_gateway_program_address"`
	BridgeProgramAddress        string      `mapstructure:"bridge_program_address"`
}

// CelestiaConfig configures the optional DA-layer sidecar adapter.
type CelestiaConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	WSURL       string `mapstructure:"wss_url"`
	StartHeight uint64 `mapstructure:"start_height"`
	Namespace   string `mapstructure:"namespace"`
	AuthToken   string `mapstructure:"rpc_auth_token"`
}

// L1sConfig groups the two source-chain configs, matching config.rs's
// L1sConfig{ethereum, solana}.
type L1sConfig struct {
	Ethereum EvmConfig `mapstructure:"ethereum"`
	Solana   SvmConfig `mapstructure:"solana"`
}

// Settings bounds batching/concurrency for every chain's indexer core.
type Settings struct {
	MaxLogBatchSize             int           `mapstructure:"max_log_batch_size"`
	MaxLogBatchTime             time.Duration `mapstructure:"max_log_batch_time"`
	MaxConcurrencyForLogProcess int           `mapstructure:"max_concurrency_for_log_process"`
}

// Config is the top-level indexer process configuration.
type Config struct {
	Database   DatabaseConfig  `mapstructure:"database"`
	Blockscout DatabaseConfig  `mapstructure:"blockscout"`
	Settings   Settings        `mapstructure:"settings"`
	L1s        L1sConfig       `mapstructure:"l1s"`
	L2         EvmConfig       `mapstructure:"l2"`
	Celestia   *CelestiaConfig `mapstructure:"celestia"`
}

// Load reads configYAMLPath (if it exists) and overlays environment
// variables onto it. Missing file is not an error, matching
// File::with_name(...).required(false) in the original source.
func Load(configYAMLPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configYAMLPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", configYAMLPath, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
