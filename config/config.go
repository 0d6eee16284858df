// Package config provides configuration management for xvpnctl.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/xvpnctl/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// HelperName is the native messaging host to resolve and spawn.
	HelperName string `yaml:"helper_name"`
	// ResponseTimeout bounds a single request/notification round-trip.
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// DisconnectTimeout is the maximum time to wait for a disconnect.
	DisconnectTimeout time.Duration `yaml:"disconnect_timeout"`
	// ShowNotifications enables desktop notifications for connection events.
	ShowNotifications bool `yaml:"show_notifications"`
	// LogLevel sets the minimum log level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
	// LogToFile enables logging to a rotated file in the config directory.
	LogToFile bool `yaml:"log_to_file"`
}

// DefaultConfig returns the default configuration.
// These are sensible defaults for most users.
func DefaultConfig() *Config {
	return &Config{
		HelperName:        common.DefaultHelperName,
		ResponseTimeout:   common.ResponseTimeout,
		ConnectTimeout:    common.ConnectTimeout,
		DisconnectTimeout: common.DisconnectTimeout,
		ShowNotifications: true,
		LogLevel:          "info",
		LogToFile:         false,
	}
}

// Load loads the configuration from the config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	// If it doesn't exist, return default configuration
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	config.validate()

	return &config, nil
}

// validate clamps missing or nonsensical values to their defaults.
func (c *Config) validate() {
	defaults := DefaultConfig()

	if c.HelperName == "" {
		c.HelperName = defaults.HelperName
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = defaults.ResponseTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.DisconnectTimeout <= 0 {
		c.DisconnectTimeout = defaults.DisconnectTimeout
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		c.LogLevel = defaults.LogLevel
	}
}

// Save saves the configuration to the file
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	return nil
}

func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
