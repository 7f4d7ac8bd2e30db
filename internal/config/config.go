package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ConfigurationError marks store configuration that is missing or invalid.
// It is fatal to the identity session and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid store configuration: %s %s", e.Field, e.Reason)
}

// StoreConfig identifies the hosted document database project.
type StoreConfig struct {
	APIKey     string `json:"apiKey"`
	AuthDomain string `json:"authDomain"`
	ProjectID  string `json:"projectId"`
	AppID      string `json:"appId"`
}

// localFallback is used when no hosted configuration is provided, so the
// storefront can run against a local store without any environment setup.
var localFallback = StoreConfig{
	APIKey:     "local-dev-api-key",
	AuthDomain: "makindu-artifacts.localhost",
	ProjectID:  "makindu-artifacts",
	AppID:      "1:000000000000:app:localdev",
}

// Validate checks that every field is present and not a template placeholder.
func (c StoreConfig) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"apiKey", c.APIKey},
		{"authDomain", c.AuthDomain},
		{"projectId", c.ProjectID},
		{"appId", c.AppID},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ConfigurationError{Field: f.name, Reason: "is required"}
		}
		if strings.Contains(f.value, "YOUR_") {
			return &ConfigurationError{Field: f.name, Reason: "is a template placeholder"}
		}
	}
	return nil
}

type Config struct {
	TenantID    string
	Store       StoreConfig
	AuthToken   string
	PostgresDSN string
	Port        string
	CartMirror  bool
}

// Load resolves configuration from the environment, optionally loading a
// .env file first. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.TenantID = os.Getenv("APP_TENANT_ID")
	if cfg.TenantID == "" {
		cfg.TenantID = "default-app-id"
	}

	if blob := os.Getenv("STORE_CONFIG"); blob != "" {
		if err := json.Unmarshal([]byte(blob), &cfg.Store); err != nil {
			return nil, fmt.Errorf("failed to parse STORE_CONFIG: %w", err)
		}
	} else {
		cfg.Store = localFallback
		log.Warn().Msg("STORE_CONFIG not set, using local fallback store configuration")
	}

	cfg.AuthToken = os.Getenv("BOOTSTRAP_AUTH_TOKEN")
	cfg.PostgresDSN = os.Getenv("STORE_DSN")
	cfg.CartMirror = os.Getenv("CART_MIRROR") == "1"

	cfg.Port = os.Getenv("APP_PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return cfg, nil
}
