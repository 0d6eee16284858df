package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/xvpnctl/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HelperName != common.DefaultHelperName {
		t.Errorf("HelperName = %v, want %v", cfg.HelperName, common.DefaultHelperName)
	}

	if cfg.ResponseTimeout != common.ResponseTimeout {
		t.Errorf("ResponseTimeout = %v, want %v", cfg.ResponseTimeout, common.ResponseTimeout)
	}

	if cfg.ConnectTimeout != common.ConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", cfg.ConnectTimeout, common.ConnectTimeout)
	}

	if cfg.DisconnectTimeout != common.DisconnectTimeout {
		t.Errorf("DisconnectTimeout = %v, want %v", cfg.DisconnectTimeout, common.DisconnectTimeout)
	}

	if !cfg.ShowNotifications {
		t.Error("ShowNotifications should be true by default")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		HelperName:        "",
		ResponseTimeout:   -1 * time.Second,
		ConnectTimeout:    0,
		DisconnectTimeout: 0,
		LogLevel:          "loud",
	}

	cfg.validate()

	if cfg.HelperName != common.DefaultHelperName {
		t.Errorf("validate should restore helper name, got %v", cfg.HelperName)
	}

	if cfg.ResponseTimeout != common.ResponseTimeout {
		t.Errorf("validate should restore response timeout, got %v", cfg.ResponseTimeout)
	}

	if cfg.ConnectTimeout != common.ConnectTimeout {
		t.Errorf("validate should restore connect timeout, got %v", cfg.ConnectTimeout)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("validate should fall back to info level, got %v", cfg.LogLevel)
	}
}

func TestConfig_ValidateKeepsGoodValues(t *testing.T) {
	cfg := &Config{
		HelperName:        "com.example.helper",
		ResponseTimeout:   2 * time.Second,
		ConnectTimeout:    time.Minute,
		DisconnectTimeout: 20 * time.Second,
		LogLevel:          "debug",
	}

	cfg.validate()

	if cfg.HelperName != "com.example.helper" {
		t.Error("validate should not touch a valid helper name")
	}
	if cfg.ResponseTimeout != 2*time.Second {
		t.Error("validate should not touch a valid response timeout")
	}
	if cfg.LogLevel != "debug" {
		t.Error("validate should not touch a valid log level")
	}
}

func TestConfig_StrictDecoding(t *testing.T) {
	data := "helper_name: com.example.helper\nunknown_setting: true\n"

	decoder := yaml.NewDecoder(strings.NewReader(data))
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err == nil {
		t.Error("decoding should reject unknown fields")
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectTimeout = 45 * time.Second
	cfg.ShowNotifications = false

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if loaded.ConnectTimeout != 45*time.Second {
		t.Errorf("ConnectTimeout = %v, want 45s", loaded.ConnectTimeout)
	}

	if loaded.ShowNotifications {
		t.Error("ShowNotifications should survive the round trip as false")
	}
}
