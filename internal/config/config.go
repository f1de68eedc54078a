// Package config handles loading and validation of service configuration.
// Supports development (.env, env vars, config file) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Persistence backends for cart content.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultSessionTTL is how long an idle session store stays in memory.
const DefaultSessionTTL = 30 * time.Minute

// Config holds all service configuration.
// Environment determines whether the storefront configuration loads from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject   string
	StorefrontID string

	Persistence Persistence

	// Widget configuration handed to adapters and reducers
	Storefront Storefront
}

// Persistence selects where cart content is stored between requests.
type Persistence struct {
	Backend    string        `json:"backend" yaml:"backend"`
	RedisURL   string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	SessionTTL time.Duration `json:"-" yaml:"-"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// A .env file in the working directory is applied first outside production.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	ttl, err := parseTTL(os.Getenv("SESSION_TTL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", "8080"),
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		StorefrontID: os.Getenv("STOREFRONT_ID"),
		Persistence: Persistence{
			Backend:    envOrDefault("PERSISTENCE_BACKEND", BackendMemory),
			RedisURL:   os.Getenv("REDIS_URL"),
			SessionTTL: ttl,
		},
	}

	if cfg.StorefrontID == "" {
		return nil, fmt.Errorf("STOREFRONT_ID environment variable required")
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading storefront config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig matches the JSON/YAML layout of CONFIG_FILE.
type fileConfig struct {
	Port         string      `json:"port" yaml:"port"`
	Environment  string      `json:"environment" yaml:"environment"`
	LogLevel     string      `json:"log_level" yaml:"log_level"`
	StorefrontID string      `json:"storefront_id" yaml:"storefront_id"`
	SessionTTL   string      `json:"session_ttl" yaml:"session_ttl"`
	Persistence  Persistence `json:"persistence" yaml:"persistence"`
	Storefront   Storefront  `json:"storefront" yaml:"storefront"`
}

// loadFromFile reads all configuration from a JSON or YAML file (by extension).
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	ttl, err := parseTTL(fc.SessionTTL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         withDefault(fc.Port, "8080"),
		Environment:  withDefault(fc.Environment, "development"),
		LogLevel:     withDefault(fc.LogLevel, "info"),
		StorefrontID: fc.StorefrontID,
		Persistence:  fc.Persistence,
		Storefront:   fc.Storefront,
	}
	cfg.Persistence.Backend = withDefault(cfg.Persistence.Backend, BackendMemory)
	cfg.Persistence.SessionTTL = ttl

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches the storefront configuration from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{storefront_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StorefrontID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Storefront); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads the storefront configuration from STOREFRONT_CONFIG (inline JSON).
// CUSTOMER_ID overrides the customer when set, which keeps local runs short.
func (c *Config) loadFromEnv() error {
	if raw := os.Getenv("STOREFRONT_CONFIG"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Storefront); err != nil {
			return fmt.Errorf("parsing STOREFRONT_CONFIG JSON: %w", err)
		}
	}
	if id := os.Getenv("CUSTOMER_ID"); id != "" {
		c.Storefront.CustomerID = id
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	switch c.Persistence.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Persistence.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported persistence backend: %s", c.Persistence.Backend)
	}

	if err := c.Storefront.Validate(); err != nil {
		return fmt.Errorf("storefront: %w", err)
	}
	return nil
}

func parseTTL(s string) (time.Duration, error) {
	if s == "" {
		return DefaultSessionTTL, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid session TTL %q: %w", s, err)
	}
	return d, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
