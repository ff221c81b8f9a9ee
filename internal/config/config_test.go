package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	return &Config{
		RelayURL:        "http://127.0.0.1:8400",
		ExchangeTimeout: DefaultExchangeTimeout,
		PollInterval:    DefaultPollInterval,
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	var c *Config
	assert.ErrorIs(t, c.Validate(), ErrConfigNil)
}

func TestValidate_RelayURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"http", "http://localhost:8400", true},
		{"https", "https://relay.example.com", true},
		{"empty", "", false},
		{"no scheme", "localhost:8400", false},
		{"wrong scheme", "ftp://example.com", false},
		{"missing host", "http://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			c.RelayURL = tt.url
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRelayURL)
			}
		})
	}
}

func TestValidate_DatabricksHostOptional(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DatabricksHost = ""
	assert.NoError(t, c.Validate(), "relay may start unconfigured")

	c.DatabricksHost = "https://adb-123.azuredatabricks.net"
	assert.NoError(t, c.Validate())

	c.DatabricksHost = "adb-123.azuredatabricks.net"
	assert.ErrorIs(t, c.Validate(), ErrInvalidDatabricksHost)
}

func TestValidate_ExchangeTiming(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.PollInterval = 100 * time.Millisecond
	assert.ErrorIs(t, c.Validate(), ErrInvalidPollInterval)

	c = validConfig()
	c.ExchangeTimeout = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidExchangeTimeout)

	c = validConfig()
	c.ExchangeTimeout = MaxExchangeTimeout + time.Minute
	assert.ErrorIs(t, c.Validate(), ErrInvalidExchangeTimeout)

	c = validConfig()
	c.PollInterval = time.Minute
	c.ExchangeTimeout = time.Minute
	assert.ErrorIs(t, c.Validate(), ErrInvalidPollInterval, "poll must be shorter than budget")
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	assert.Empty(t, maskSecret(""))
	assert.Equal(t, maskedValue, maskSecret("short"), "short secrets are fully masked")

	masked := maskSecret("dapi1234567890abcdef")
	assert.True(t, strings.HasPrefix(masked, "da"))
	assert.True(t, strings.HasSuffix(masked, "ef"))
	assert.NotContains(t, masked, "1234567890")
}

func TestConfig_MarshalJSONMasksToken(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DatabricksToken = "dapi1234567890abcdef"

	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "dapi1234567890abcdef")
	assert.Contains(t, string(data), maskedValue)
}

func TestConfig_StringMasksToken(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.DatabricksToken = "dapi1234567890abcdef"

	assert.NotContains(t, c.String(), "dapi1234567890abcdef")
}
