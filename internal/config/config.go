// Package config loads exporter settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full exporter configuration.
type Config struct {
	// Upstream credentials
	ChargifyDomain string `mapstructure:"chargify_domain" validate:"required"`
	ChargifyAPIKey string `mapstructure:"chargify_api_key" validate:"required"`
	StripeAPIKey   string `mapstructure:"stripe_api_key" validate:"required"`

	// Serving
	ListenAddr      string        `mapstructure:"listen_addr" validate:"required"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"required"`

	// Cycle journal. An empty path disables the journal, a zero
	// retention disables pruning.
	JournalPath      string        `mapstructure:"journal_path"`
	JournalRetention time.Duration `mapstructure:"journal_retention"`
}

var validate = validator.New()

// Load reads configuration from path, or from ~/.c2c/config.yaml when path
// is empty. The file is optional unless the path was given explicitly.
func Load(path string) (*Config, error) {
	// A .env file in the working directory is picked up when present
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("chargify_domain", "")
	v.SetDefault("chargify_api_key", "")
	v.SetDefault("stripe_api_key", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("refresh_interval", "5m")
	v.SetDefault("journal_path", "~/.c2c/journal.db")
	v.SetDefault("journal_retention", "720h")

	// The upstream credentials keep their historical unprefixed names
	v.BindEnv("chargify_domain", "CHARGIFY_DOMAIN")
	v.BindEnv("chargify_api_key", "CHARGIFY_API_KEY")
	v.BindEnv("stripe_api_key", "STRIPE_API_KEY")
	v.BindEnv("listen_addr", "C2C_LISTEN_ADDR")
	v.BindEnv("refresh_interval", "C2C_REFRESH_INTERVAL")
	v.BindEnv("journal_path", "C2C_JOURNAL_PATH")
	v.BindEnv("journal_retention", "C2C_JOURNAL_RETENTION")

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfigPath returns the path to the default config file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".c2c", "config.yaml")
}
