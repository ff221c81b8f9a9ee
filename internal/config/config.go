// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.geniechat/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Databricks: workspace host, token, Genie space (serve mode)
//   - Relay: base URL the chat client talks to
//   - Exchange: Genie polling cadence and completion budget
//   - Tracing: OTLP trace export for the relay (see TracingConfig)
//
// Security: the Databricks token is never logged; config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidRelayURL indicates the relay base URL is malformed.
	ErrInvalidRelayURL = errors.New("invalid relay URL")

	// ErrInvalidDatabricksHost indicates the Databricks workspace host is malformed.
	ErrInvalidDatabricksHost = errors.New("invalid Databricks host")

	// ErrInvalidPollInterval indicates the Genie poll interval is out of range.
	ErrInvalidPollInterval = errors.New("invalid poll interval")

	// ErrInvalidExchangeTimeout indicates the exchange completion budget is out of range.
	ErrInvalidExchangeTimeout = errors.New("invalid exchange timeout")
)

// Exchange timing bounds. The defaults mirror the hosted Genie waiter behavior:
// a five-minute completion budget polled every two seconds.
const (
	DefaultExchangeTimeout = 5 * time.Minute
	DefaultPollInterval    = 2 * time.Second

	MinPollInterval    = 250 * time.Millisecond
	MaxExchangeTimeout = 30 * time.Minute
)

// TracingConfig configures OTLP trace export for the relay.
type TracingConfig struct {
	// Enabled turns trace export on. Default: false.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name reported on spans.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (tokens, secrets), update MarshalJSON.
type Config struct {
	// Databricks workspace configuration (serve mode)
	DatabricksHost  string `mapstructure:"databricks_host" json:"databricks_host"`
	DatabricksToken string `mapstructure:"databricks_token" json:"databricks_token"` // SENSITIVE: masked in MarshalJSON
	GenieSpaceID    string `mapstructure:"genie_space_id" json:"genie_space_id"`

	// Relay configuration (chat mode: where the client sends messages)
	RelayURL string `mapstructure:"relay_url" json:"relay_url"`

	// Genie exchange timing (serve mode)
	ExchangeTimeout time.Duration `mapstructure:"exchange_timeout" json:"exchange_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" json:"poll_interval"`

	// Security configuration (serve mode only)
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For headers (set true behind reverse proxy)

	// Observability configuration
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.geniechat/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".geniechat")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Relay defaults (matches the serve command's default bind address)
	v.SetDefault("relay_url", "http://127.0.0.1:8400")

	// Exchange timing defaults
	v.SetDefault("exchange_timeout", DefaultExchangeTimeout)
	v.SetDefault("poll_interval", DefaultPollInterval)

	// CORS defaults: same-origin TUI client needs nothing; browser clients opt in
	v.SetDefault("cors_origins", []string{})

	// Proxy trust (default: false — safe for direct exposure; set true behind reverse proxy)
	v.SetDefault("trust_proxy", false)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.environment", "dev")
	v.SetDefault("tracing.service_name", "geniechat-relay")
}

// bindEnvVariables binds environment variables explicitly.
// The Databricks variables use the names the hosted platform already sets,
// so a relay deployed next to the workspace needs zero extra configuration.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("databricks_host", "DATABRICKS_HOST")
	mustBind("databricks_token", "DATABRICKS_TOKEN")
	mustBind("genie_space_id", "DATABRICKS_GENIE_SPACE_ID")

	mustBind("relay_url", "GENIE_RELAY_URL")

	mustBind("cors_origins", "GENIECHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "GENIECHAT_TRUST_PROXY")

	mustBind("tracing.enabled", "GENIECHAT_TRACING")
	mustBind("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret content when logs are grepped.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: For secrets <=8 chars, fully masks to prevent substring attacks.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - DatabricksToken
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.DatabricksToken = maskSecret(a.DatabricksToken)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
