package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration
type Config struct {
	// ServerURL is the base origin of the torrent service API
	ServerURL string `mapstructure:"server_url"`

	// LogLevel is one of debug, info, warn, error, fatal, none
	LogLevel string `mapstructure:"log_level"`

	// LogFile is where log output goes while the TUI owns the terminal.
	// Empty means logs are discarded in TUI mode.
	LogFile string `mapstructure:"log_file"`

	// NoTUI runs the headless watcher: pollers and log output only
	NoTUI bool `mapstructure:"no_tui"`
}

// Load resolves the configuration from defaults, an optional config file and
// RQWATCH_* environment variables, in ascending precedence. Flag bindings on
// v override all of these.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("server_url", "http://127.0.0.1:3030")
	v.SetDefault("log_level", "info")

	v.SetConfigName("rqwatch")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.config/rqwatch")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RQWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url must not be empty")
	}

	return &cfg, nil
}
