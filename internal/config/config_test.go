package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filvote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
port: 9000
walletConnectDelay: 250ms
session:
  idleTimeout: 30m
  maxSessions: 5
ai:
  provider: local
  baseURL: http://ai:10000
  temperature: 0.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	expected := Default()
	expected.Port = 9000
	expected.WalletConnectDelay = 250 * time.Millisecond
	expected.Session.IdleTimeout = 30 * time.Minute
	expected.Session.MaxSessions = 5
	expected.AI.Provider = "local"
	expected.AI.BaseURL = "http://ai:10000"
	expected.AI.Temperature = 0.2
	assert.Equal(t, expected, cfg)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")

	tests := []struct {
		name   string
		env    map[string]string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "prefixed_port_wins_over_file",
			env:  map[string]string{"FILVOTE_PORT": "7000"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, uint(7000), cfg.Port)
			},
		},
		{
			name: "bare_port_fallback",
			env:  map[string]string{"PORT": "7001"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, uint(7001), cfg.Port)
			},
		},
		{
			name: "bare_api_key_fallback",
			env:  map[string]string{"API_KEY": "secret"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "secret", cfg.AI.APIKey)
			},
		},
		{
			name: "nested_fields",
			env: map[string]string{
				"FILVOTE_AI_API_KEY":             "prefixed",
				"FILVOTE_AI_REQUESTS_PER_MINUTE": "0",
				"FILVOTE_SESSION_IDLE_TIMEOUT":   "5m",
				"FILVOTE_WALLET_CONNECT_DELAY":   "0s",
				"FILVOTE_SESSION_SECRET":         "s3cr3t",
				"FILVOTE_SESSION_JANITOR_SPEC":   "@every 10s",
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "prefixed", cfg.AI.APIKey)
				assert.Equal(t, 0, cfg.AI.RequestsPerMinute)
				assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
				assert.Equal(t, time.Duration(0), cfg.WalletConnectDelay)
				assert.Equal(t, "s3cr3t", cfg.Session.Secret)
				assert.Equal(t, "@every 10s", cfg.Session.JanitorSpec)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(path)
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	_, err = Load(writeConfig(t, "port: [not a number"))
	assert.ErrorContains(t, err, "error parsing config file")

	t.Setenv("FILVOTE_SHUTDOWN_TIMEOUT", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "error processing environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedError string
	}{
		{name: "defaults_valid", mutate: func(*Config) {}},
		{
			name:          "zero_port",
			mutate:        func(c *Config) { c.Port = 0 },
			expectedError: "invalid port",
		},
		{
			name:          "unknown_provider",
			mutate:        func(c *Config) { c.AI.Provider = "openai" },
			expectedError: "invalid ai.provider",
		},
		{
			name:          "bad_janitor_spec",
			mutate:        func(c *Config) { c.Session.JanitorSpec = "whenever" },
			expectedError: "invalid session.janitorSpec",
		},
		{
			name:          "burst_required_with_limit",
			mutate:        func(c *Config) { c.AI.Burst = 0 },
			expectedError: "ai.burst must be at least 1",
		},
		{
			name:   "burst_ignored_without_limit",
			mutate: func(c *Config) { c.AI.Burst = 0; c.AI.RequestsPerMinute = 0 },
		},
		{
			name:          "no_sessions",
			mutate:        func(c *Config) { c.Session.MaxSessions = 0 },
			expectedError: "session.maxSessions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := Default()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
