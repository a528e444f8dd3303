// Package cliconfig loads the VM default settings the cupidscript CLI
// hands to every embedded interpreter, the way internal/cli/config used
// to load conduit.yml for the web tooling.
package cliconfig

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the VM defaults the CLI applies before running a script.
// A host embedding the interpreter directly (not through this CLI) sets
// these same knobs on the Interpreter itself; this package only exists
// to give the demo CLI a config file/env-var surface for them.
type Config struct {
	InstructionLimit int64 `mapstructure:"instruction_limit"`
	TimeoutMS        int64 `mapstructure:"timeout_ms"`
	SocketTimeoutMS  int64 `mapstructure:"socket_timeout_ms"`
	TLSVerify        bool  `mapstructure:"tls_verify"`
}

// Timeout converts TimeoutMS to a time.Duration, 0 meaning unbounded.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// SocketTimeout converts SocketTimeoutMS to a time.Duration, 0 meaning
// unbounded.
func (c *Config) SocketTimeout() time.Duration {
	return time.Duration(c.SocketTimeoutMS) * time.Millisecond
}

// Load reads cupidscript.yml (or .yaml) from the current directory,
// falling back to defaults, and lets CUPIDSCRIPT_* environment
// variables override any field.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("instruction_limit", 0)
	v.SetDefault("timeout_ms", 0)
	v.SetDefault("socket_timeout_ms", 30000)
	v.SetDefault("tls_verify", true)

	v.SetConfigName("cupidscript")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CUPIDSCRIPT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
