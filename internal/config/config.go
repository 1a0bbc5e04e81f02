package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "filvote.config"

// EnvPrefix is prepended to every environment override
const EnvPrefix = "filvote"

// SearchPaths are tried in order when no config file is given
var SearchPaths = []string{
	"filvote.yaml",
	"/etc/filvote/filvote.yaml",
}

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	BindAddr           string        `yaml:"bindAddr"           split_words:"true"`
	Port               uint          `yaml:"port"               envconfig:"port"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"    split_words:"true"`
	TracingStdout      bool          `yaml:"tracingStdout"      split_words:"true"`
	WalletConnectDelay time.Duration `yaml:"walletConnectDelay" split_words:"true"`
	ProposalLifetime   time.Duration `yaml:"proposalLifetime"   split_words:"true"`
	Session            SessionConfig `yaml:"session"`
	AI                 AIConfig      `yaml:"ai"`
}

type SessionConfig struct {
	// Secret signs session tokens. A random one is generated when empty.
	Secret      string        `yaml:"secret"`
	TTL         time.Duration `yaml:"ttl"`
	IdleTimeout time.Duration `yaml:"idleTimeout" split_words:"true"`
	MaxSessions int           `yaml:"maxSessions" split_words:"true"`
	JanitorSpec string        `yaml:"janitorSpec" split_words:"true"`
}

type AIConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"baseURL"     split_words:"true"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"      envconfig:"api_key"`
	Temperature float64 `yaml:"temperature"`
	TopK        int     `yaml:"topK"        split_words:"true"`
	TopP        float64 `yaml:"topP"        split_words:"true"`
	// RequestTimeout of 0 leaves AI calls unbounded except by shutdown
	RequestTimeout    time.Duration `yaml:"requestTimeout"    split_words:"true"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" split_words:"true"`
	Burst             int           `yaml:"burst"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		BindAddr:           "0.0.0.0",
		Port:               8080,
		ShutdownTimeout:    30 * time.Second,
		WalletConnectDelay: time.Second,
		ProposalLifetime:   7 * 24 * time.Hour,
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			IdleTimeout: 2 * time.Hour,
			MaxSessions: 10000,
			JanitorSpec: "@every 1m",
		},
		AI: AIConfig{
			Provider:          "gemini",
			BaseURL:           "https://generativelanguage.googleapis.com",
			Model:             "gemini-3-flash-preview",
			Temperature:       0.7,
			TopK:              40,
			TopP:              0.95,
			RequestsPerMinute: 30,
			Burst:             5,
		},
	}
}

// Load applies the YAML file (or the first file found in SearchPaths) and
// then environment overrides on top of the defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		for _, p := range SearchPaths {
			if _, err := os.Stat(p); err == nil {
				configFile = p
				break
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the janitor schedule
func (c *Config) Validate() error {
	var errs []error
	if c.Port == 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdownTimeout must be positive"))
	}
	if c.WalletConnectDelay < 0 {
		errs = append(errs, errors.New("walletConnectDelay must not be negative"))
	}
	if c.ProposalLifetime <= 0 {
		errs = append(errs, errors.New("proposalLifetime must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session.idleTimeout must be positive"))
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, errors.New("session.maxSessions must be positive"))
	}
	if _, err := cron.ParseStandard(c.Session.JanitorSpec); err != nil {
		errs = append(errs, fmt.Errorf("invalid session.janitorSpec %q: %w", c.Session.JanitorSpec, err))
	}
	switch c.AI.Provider {
	case "gemini", "local":
	default:
		errs = append(errs, fmt.Errorf("invalid ai.provider: %q (must be 'gemini' or 'local')", c.AI.Provider))
	}
	if c.AI.RequestTimeout < 0 {
		errs = append(errs, errors.New("ai.requestTimeout must not be negative"))
	}
	if c.AI.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("ai.requestsPerMinute must not be negative"))
	}
	if c.AI.RequestsPerMinute > 0 && c.AI.Burst < 1 {
		errs = append(errs, errors.New("ai.burst must be at least 1 when rate limiting is enabled"))
	}
	return errors.Join(errs...)
}

// ListenAddr is the host:port the HTTP server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}
