// Package config loads process configuration with Viper, following the
// same shape as the teacher's am.Load: a package-level cached config,
// defaults set before the file is read, and environment variable
// overrides under a single prefix.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the settings the protocol shell and CLI need. The core
// packages themselves take explicit constructor arguments — this type
// only exists to get those arguments from disk/env into cmd/texlsd.
type Config struct {
	// DictionaryDir is an additional directory of module TOML files
	// that override/extend the embedded defaults (spec §4.3).
	DictionaryDir string `mapstructure:"dictionary_dir"`

	// SearchPath is the list of directories searched for \input-class
	// filename candidates during completion (spec §4.6 input action).
	SearchPath []string `mapstructure:"search_path"`

	// MaxIncludeDepth overrides the default cycle-guard depth of 15
	// (spec §3 Invariants).
	MaxIncludeDepth int `mapstructure:"max_include_depth"`

	// JSONLogs selects structured JSON logging over the minimal
	// console encoder.
	JSONLogs bool `mapstructure:"json_logs"`

	// Transport selects how cmd/texlsd exposes the core: "stdio" (the
	// conventional LSP transport) or "websocket".
	Transport string `mapstructure:"transport"`

	// WebSocketAddr is the listen address when Transport is
	// "websocket".
	WebSocketAddr string `mapstructure:"websocket_addr"`
}

var global *Config

// Load reads configuration from (in increasing precedence) defaults,
// a config file named texlsd.toml on the usual search paths, and
// TEXLSD_-prefixed environment variables.
func Load() (*Config, error) {
	if global != nil {
		return global, nil
	}

	v := newViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	global = &cfg
	return global, nil
}

// Reset clears the cached configuration. Exposed for tests.
func Reset() {
	global = nil
}

func newViper() *viper.Viper {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("texlsd")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/texlsd")

	v.SetEnvPrefix("TEXLSD")
	v.AutomaticEnv()

	// A missing config file is not an error — defaults and env vars
	// are enough to run.
	_ = v.ReadInConfig()

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dictionary_dir", "")
	v.SetDefault("search_path", []string{"."})
	v.SetDefault("max_include_depth", 15)
	v.SetDefault("json_logs", false)
	v.SetDefault("transport", "stdio")
	v.SetDefault("websocket_addr", "127.0.0.1:7737")
}
