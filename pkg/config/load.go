package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// NewViper prepares a viper instance reading path (when non-empty) and
// environment variables with the given prefix. Nested keys map to
// underscores, so timeouts.fetch reads PREFIX_TIMEOUTS_FETCH.
func NewViper(path, envPrefix string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("discovery_url", DefaultDiscoveryURL)
	v.SetDefault("ipfs_url", DefaultIpfsURL)
	v.SetDefault("gateway_url", DefaultGatewayURL)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("batch_limit", DefaultBatchLimit)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 0)
	v.SetDefault("api_key", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("strict_documents", false)
	v.SetDefault("strict_namespace", false)
	v.SetDefault("debug", false)
	v.SetDefault("timeouts.fetch", "0s")
	v.SetDefault("timeouts.request", "0s")
	v.SetDefault("timeouts.dial", "0s")
	v.SetDefault("timeouts.batch", "0s")
	return v
}

// Load reads the config file configured on v, if any, and decodes it with
// the environment layered on top. A missing file is not an error when no
// path was given.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
