// Package config loads application settings from a config file and
// STORYKEEP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CloudConfig selects and configures the cloud backup provider.
type CloudConfig struct {
	// Endpoint is the S3-compatible endpoint host:port.
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`

	// User namespaces the backup object within the bucket.
	User string `mapstructure:"user"`
}

// Configured reports whether enough settings are present to build a
// provider client.
func (c CloudConfig) Configured() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Config holds all application settings.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path"`

	// LogFile enables rotating file logging when non-empty.
	LogFile string `mapstructure:"log_file"`

	// BackendBaseURL is the hosted API endpoint for online features.
	BackendBaseURL string `mapstructure:"backend_base_url"`

	// BackendToken authenticates requests to the hosted API.
	BackendToken string `mapstructure:"backend_token"`

	Cloud CloudConfig `mapstructure:"cloud"`
}

// Load reads configuration from the given file (optional), then from
// $XDG_CONFIG_HOME/storykeep/config.yaml, then the environment.
// Environment variables use the STORYKEEP_ prefix with underscores,
// e.g. STORYKEEP_CLOUD_BUCKET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STORYKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults also register the keys so environment-only values survive
	// Unmarshal.
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("log_file", "")
	v.SetDefault("backend_base_url", "")
	v.SetDefault("backend_token", "")
	v.SetDefault("cloud.endpoint", "")
	v.SetDefault("cloud.access_key", "")
	v.SetDefault("cloud.secret_key", "")
	v.SetDefault("cloud.bucket", "")
	v.SetDefault("cloud.use_ssl", true)
	v.SetDefault("cloud.user", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "storykeep"))
		}
		v.AddConfigPath(".")
	}

	// A missing default config is fine; a missing explicit one or a
	// parse error is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storykeep.db"
	}
	return filepath.Join(dir, "storykeep", "storykeep.db")
}
