package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads a TOML configuration file plus LEDGERD_-prefixed
// environment overrides, following the teacher's LoadConfig shape
// (internal/config/loader.go, since deleted): a fresh viper instance
// per call, defaults seeded before the file is merged in, env
// override binding via SetEnvKeyReplacer.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	seedDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("LEDGERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func seedDefaults(v *viper.Viper, def Config) {
	v.SetDefault("token.symbol", def.Token.Symbol)
	v.SetDefault("token.name", def.Token.Name)
	v.SetDefault("token.decimals", def.Token.Decimals)
	v.SetDefault("fee.minimum", def.Fee.Minimum)
	v.SetDefault("fee.rate", def.Fee.Rate)
	v.SetDefault("fee.rate_decimals", def.Fee.RateDecimals)
	v.SetDefault("window.max_in_window", def.Window.MaxInWindow)
	v.SetDefault("window.retention_nanos", def.Window.RetentionNanos)
	v.SetDefault("archive.max_batch_bytes", def.Archive.MaxBatchBytes)
	v.SetDefault("archive.max_shard_bytes", def.Archive.MaxShardBytes)
	v.SetDefault("archive.max_blocks_per_batch", def.Archive.MaxBlocksPerBatch)
	v.SetDefault("server.grpc_addr", def.Server.GRPCAddr)
}
