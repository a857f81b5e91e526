package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Node      NodeConfig
	Bridge    BridgeConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// NodeConfig holds the node API connection settings.
type NodeConfig struct {
	URL             string        `envconfig:"NODE_URL" default:"http://localhost:12391"`
	APIKey          string        `envconfig:"NODE_API_KEY"`
	Timeout         time.Duration `envconfig:"NODE_TIMEOUT" default:"30s"`
	RetryMax        int           `envconfig:"NODE_RETRY_MAX" default:"2"`
	RateLimit       float64       `envconfig:"NODE_RATE_LIMIT" default:"0"`
	Burst           int           `envconfig:"NODE_BURST" default:"0"`
	BreakerCooldown time.Duration `envconfig:"NODE_BREAKER_COOLDOWN" default:"10s"`
}

// BridgeConfig holds message bridge settings.
type BridgeConfig struct {
	// View is the viewing context of bridge sessions that do not name one.
	View           string        `envconfig:"BRIDGE_VIEW" default:"render"`
	Theme          string        `envconfig:"BRIDGE_THEME" default:"light"`
	Convention     string        `envconfig:"BRIDGE_CONVENTION" default:"direct"`
	DefaultTimeout time.Duration `envconfig:"BRIDGE_DEFAULT_TIMEOUT" default:"10s"`
	GatewayNotice  string        `envconfig:"BRIDGE_GATEWAY_NOTICE"`
	DomainMapFile  string        `envconfig:"BRIDGE_DOMAIN_MAP"`
	Gateway        bool          `envconfig:"BRIDGE_GATEWAY" default:"false"`
}

// SandboxConfig holds script sandbox settings.
type SandboxConfig struct {
	PoolSize int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	Timeout  time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables, after merging any
// of the given dotenv files that exist. Variables already set win.
func Load(dotenv ...string) (*Config, error) {
	for _, file := range dotenv {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault(dotenv ...string) *Config {
	cfg, err := Load(dotenv...)
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if _, err := page.ParseView(c.Bridge.View); err != nil {
		return fmt.Errorf("invalid BRIDGE_VIEW: %w", err)
	}
	if _, err := dispatch.ParseConvention(c.Bridge.Convention); err != nil {
		return fmt.Errorf("invalid BRIDGE_CONVENTION: %w", err)
	}
	if c.Bridge.DefaultTimeout <= 0 {
		return fmt.Errorf("invalid BRIDGE_DEFAULT_TIMEOUT: %s", c.Bridge.DefaultTimeout)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Node: NodeConfig{
			URL:             "http://localhost:12391",
			Timeout:         30 * time.Second,
			RetryMax:        2,
			BreakerCooldown: 10 * time.Second,
		},
		Bridge: BridgeConfig{
			View:           "render",
			Theme:          page.DefaultTheme,
			Convention:     string(dispatch.ConventionDirect),
			DefaultTimeout: 10 * time.Second,
		},
		Sandbox: SandboxConfig{
			PoolSize: 4,
			Timeout:  30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
