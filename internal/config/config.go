// Package config loads ledgerd's on-disk configuration, grounded in
// the teacher's viper-backed loader (internal/config/loader.go, since
// deleted along with the XRPL-specific sections it populated) but
// retargeted to the token ledger's own settings: genesis identity,
// fee schedule, the anti-replay window, archival tuning, and the
// shard transport endpoint.
package config

import "fmt"

// TokenConfig is the genesis configuration for the token this ledgerd
// process serves.
type TokenConfig struct {
	Symbol    string `mapstructure:"symbol" toml:"symbol"`
	Name      string `mapstructure:"name" toml:"name"`
	Decimals  uint8  `mapstructure:"decimals" toml:"decimals"`
	OwnerText string `mapstructure:"owner" toml:"owner"`
	FeeToText string `mapstructure:"fee_to" toml:"fee_to"`
}

// FeeConfig mirrors fee.Schedule's fields in their on-disk,
// string-amount form.
type FeeConfig struct {
	Minimum      string `mapstructure:"minimum" toml:"minimum"`
	Rate         uint64 `mapstructure:"rate" toml:"rate"`
	RateDecimals uint8  `mapstructure:"rate_decimals" toml:"rate_decimals"`
}

// WindowConfig mirrors chain.WindowConfig.
type WindowConfig struct {
	MaxInWindow    int    `mapstructure:"max_in_window" toml:"max_in_window"`
	RetentionNanos uint64 `mapstructure:"retention_nanos" toml:"retention_nanos"`
}

// ArchiveConfig mirrors archive.Config plus the shard transport target.
type ArchiveConfig struct {
	MaxBatchBytes     uint64 `mapstructure:"max_batch_bytes" toml:"max_batch_bytes"`
	MaxShardBytes     uint64 `mapstructure:"max_shard_bytes" toml:"max_shard_bytes"`
	MaxBlocksPerBatch int    `mapstructure:"max_blocks_per_batch" toml:"max_blocks_per_batch"`
	ShardTarget       string `mapstructure:"shard_target" toml:"shard_target"` // empty uses the in-process MemoryShard
}

// StorageConfig names the on-disk paths for the optional durable
// stores (D6/D7/D8). serve opens the snapshot store and the tx index
// when their paths are set; no command reads block_log_path, so the
// block log is never opened and the chain is held in memory only.
type StorageConfig struct {
	BlockLogPath      string `mapstructure:"block_log_path" toml:"block_log_path"`
	StateSnapshotPath string `mapstructure:"state_snapshot_path" toml:"state_snapshot_path"`
	TxIndexDSN        string `mapstructure:"tx_index_dsn" toml:"tx_index_dsn"`
}

// ServerConfig is the process's own listen settings.
type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr" toml:"grpc_addr"`
}

// Config is the top-level ledgerd configuration document.
type Config struct {
	Token   TokenConfig   `mapstructure:"token" toml:"token"`
	Fee     FeeConfig     `mapstructure:"fee" toml:"fee"`
	Window  WindowConfig  `mapstructure:"window" toml:"window"`
	Archive ArchiveConfig `mapstructure:"archive" toml:"archive"`
	Storage StorageConfig `mapstructure:"storage" toml:"storage"`
	Server  ServerConfig  `mapstructure:"server" toml:"server"`
}

// Default returns a single-owner, in-memory, zero-fee configuration
// suitable for the `ledgerd init` scaffold and for tests.
func Default() Config {
	return Config{
		Token:  TokenConfig{Symbol: "TOK", Name: "Example Token", Decimals: 8},
		Fee:    FeeConfig{Minimum: "0", Rate: 0, RateDecimals: 0},
		Window: WindowConfig{MaxInWindow: 3000, RetentionNanos: 24 * 60 * 60 * 1e9},
		Archive: ArchiveConfig{
			MaxBatchBytes:     2 * 1024 * 1024,
			MaxShardBytes:     3 * 1024 * 1024 * 1024,
			MaxBlocksPerBatch: 2000,
		},
		Server: ServerConfig{GRPCAddr: ":7654"},
	}
}

// Validate rejects configurations the façade could not construct a
// Ledger from.
func (c Config) Validate() error {
	if c.Token.OwnerText == "" {
		return fmt.Errorf("config: token.owner is required")
	}
	if c.Token.Decimals > 38 {
		return fmt.Errorf("config: token.decimals out of range")
	}
	return nil
}
