// Package config loads wexapi settings from a YAML file, WEXAPI_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wexample/go-api/pkg/client"
)

// EnvPrefix is prepended to every environment variable, e.g. WEXAPI_BASE_URL.
const EnvPrefix = "WEXAPI"

var validate = validator.New()

// Config is the resolved configuration.
type Config struct {
	BaseURL   string            `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey    string            `mapstructure:"api_key"`
	Timeout   time.Duration     `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string            `mapstructure:"user_agent"`
	Headers   map[string]string `mapstructure:"headers"`
	CacheTTL  time.Duration     `mapstructure:"cache_ttl" validate:"gte=0"`
	RedisURL  string            `mapstructure:"redis_url" validate:"omitempty,url"`
	RateLimit RateLimit         `mapstructure:"rate_limit"`
	Entities  []string          `mapstructure:"entities" validate:"dive,required"`
	Debug     bool              `mapstructure:"debug"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// RateLimit configures the client token bucket. RPS 0 disables it.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"base-url": "base_url",
	"api-key":  "api_key",
	"debug":    "debug",
	"timeout":  "timeout",
}

// Load reads configuration. When path is empty, wexapi.yaml is looked up in
// the working directory and $HOME/.wexapi; a missing file is not an error.
// Flags from fs that were set explicitly override every other source.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wexapi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.wexapi")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", "10s")
	v.SetDefault("user_agent", client.DefaultUserAgent)
	v.SetDefault("headers", map[string]string{})
	v.SetDefault("cache_ttl", "0s")
	v.SetDefault("redis_url", "")
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("entities", []string{})
	v.SetDefault("debug", false)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ClientOptions translates the configuration into client options. The Redis
// cache needs a live connection and is wired by the caller.
func (c *Config) ClientOptions(logger *zap.Logger) []client.Option {
	opts := []client.Option{
		client.WithTimeout(c.Timeout),
		client.WithAPIKey(c.APIKey),
		client.WithLogger(logger),
		client.WithDefaultHeaders(c.Headers),
	}
	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}
	if c.CacheTTL > 0 && c.RedisURL == "" {
		opts = append(opts, client.WithCacheTTL(c.CacheTTL))
	}
	if c.RateLimit.RPS > 0 {
		opts = append(opts, client.WithRateLimit(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	return opts
}
