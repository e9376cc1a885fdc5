package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/dispatch/pkg/lalamove"
	"github.com/zalando/go-keyring"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Lalamove
	LalamoveEnabled        bool          `envconfig:"LALAMOVE_ENABLED" default:"true"`
	LalamoveBaseURL        string        `envconfig:"LALAMOVE_BASE_URL" default:"https://rest.sandbox.lalamove.com"`
	LalamoveAPIKey         string        `envconfig:"LALAMOVE_API_KEY"`
	LalamoveAPISecret      string        `envconfig:"LALAMOVE_API_SECRET"`
	LalamoveMarkets        []string      `envconfig:"LALAMOVE_MARKETS" default:"TW"`
	LalamoveTimeout        time.Duration `envconfig:"LALAMOVE_TIMEOUT" default:"10s"`
	LalamoveUseMock        bool          `envconfig:"LALAMOVE_USE_MOCK" default:"false"`
	LalamoveKeyringService string        `envconfig:"LALAMOVE_KEYRING_SERVICE"`

	// In-memory carrier for local development
	MockCarrierEnabled bool `envconfig:"MOCK_CARRIER_ENABLED" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"dispatch"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables, resolves the API
// secret from the OS keyring when configured, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ResolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveSecrets fills an empty API secret from the OS keyring. The entry is
// looked up under LALAMOVE_KEYRING_SERVICE with the API key as user.
func (c *Config) ResolveSecrets() error {
	if c.LalamoveAPISecret != "" || c.LalamoveKeyringService == "" {
		return nil
	}
	if c.LalamoveAPIKey == "" {
		return fmt.Errorf("loading config: LALAMOVE_API_KEY is required to read the secret from the keyring")
	}

	secret, err := keyring.Get(c.LalamoveKeyringService, c.LalamoveAPIKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("loading config: no keyring entry for %s in service %q", c.LalamoveAPIKey, c.LalamoveKeyringService)
		}
		return fmt.Errorf("loading config: keyring: %w", err)
	}
	c.LalamoveAPISecret = secret
	return nil
}

// Markets returns the configured Lalamove markets, upper-cased and without
// duplicates.
func (c *Config) Markets() []lalamove.Market {
	seen := make(map[lalamove.Market]bool, len(c.LalamoveMarkets))
	markets := make([]lalamove.Market, 0, len(c.LalamoveMarkets))
	for _, raw := range c.LalamoveMarkets {
		m := lalamove.Market(strings.ToUpper(strings.TrimSpace(raw)))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		markets = append(markets, m)
	}
	return markets
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid config: PORT %d out of range", c.Port)
	}
	if !c.LalamoveEnabled {
		return nil
	}

	markets := c.Markets()
	if len(markets) == 0 {
		return fmt.Errorf("invalid config: LALAMOVE_MARKETS is empty")
	}
	for _, m := range markets {
		if !lalamove.KnownMarket(m) {
			return fmt.Errorf("invalid config: unknown Lalamove market %q", m)
		}
	}
	if c.LalamoveTimeout <= 0 {
		return fmt.Errorf("invalid config: LALAMOVE_TIMEOUT must be positive")
	}
	if c.LalamoveUseMock {
		return nil
	}
	if c.LalamoveAPIKey == "" {
		return fmt.Errorf("invalid config: LALAMOVE_API_KEY is required")
	}
	if c.LalamoveAPISecret == "" {
		return fmt.Errorf("invalid config: LALAMOVE_API_SECRET is required (or set LALAMOVE_KEYRING_SERVICE)")
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	markets := make([]string, 0, len(c.LalamoveMarkets))
	for _, m := range c.Markets() {
		markets = append(markets, string(m))
	}
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("lalamove.enabled", c.LalamoveEnabled),
		attribute.Bool("lalamove.mock", c.LalamoveUseMock),
		attribute.StringSlice("lalamove.markets", markets),
		attribute.Bool("mock_carrier.enabled", c.MockCarrierEnabled),
	}
}
