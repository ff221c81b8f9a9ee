package config

import (
	"fmt"
	"net/url"
)

// Validate performs fail-fast validation of the loaded configuration.
// Presence of Databricks credentials is deliberately NOT checked here: the
// relay starts unconfigured and reports the problem per-request and via
// /api/genie/health, matching the behavior of the hosted deployment where
// credentials arrive from the platform environment.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if err := validateBaseURL(c.RelayURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRelayURL, err)
	}

	// Host is optional, but if set it must be a usable base URL.
	if c.DatabricksHost != "" {
		if err := validateBaseURL(c.DatabricksHost); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDatabricksHost, err)
		}
	}

	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("%w: %s is below minimum %s", ErrInvalidPollInterval, c.PollInterval, MinPollInterval)
	}
	if c.ExchangeTimeout <= 0 || c.ExchangeTimeout > MaxExchangeTimeout {
		return fmt.Errorf("%w: %s not in (0, %s]", ErrInvalidExchangeTimeout, c.ExchangeTimeout, MaxExchangeTimeout)
	}
	if c.PollInterval >= c.ExchangeTimeout {
		return fmt.Errorf("%w: poll interval %s must be shorter than exchange timeout %s",
			ErrInvalidPollInterval, c.PollInterval, c.ExchangeTimeout)
	}

	return nil
}

// validateBaseURL checks that s parses as an absolute http(s) URL with a host.
func validateBaseURL(s string) error {
	if s == "" {
		return fmt.Errorf("empty URL")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
