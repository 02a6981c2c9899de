// Package config loads CLI settings from the config file, environment
// variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`

	MaxBatchSize  int           `mapstructure:"max_batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration with the precedence: defaults, then the config
// file, then DEEPCLI_* environment variables. path overrides the default
// config file location (~/.deepcli/config.yaml) when non-empty. A missing
// config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "https://api.deepseek.com")
	v.SetDefault("model", "deepseek-chat")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2000)
	v.SetDefault("timeout", 120*time.Second)
	v.SetDefault("max_batch_size", 5)
	v.SetDefault("batch_timeout", 100*time.Millisecond)
	v.SetDefault("retry_attempts", 5)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("cache_size", 256)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("DEEPCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional provider key also works without the prefix.
	_ = v.BindEnv("api_key", "DEEPCLI_API_KEY", "DEEPSEEK_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".deepcli"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
