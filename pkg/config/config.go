package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Store backends selectable via store.backend.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
	StoreBackendSQLite = "sqlite"
)

// RateRule bounds how many times an operation may run inside a fixed window.
type RateRule struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	Discord struct {
		Token          string        `yaml:"token"`
		LobbyNames     []string      `yaml:"lobby_names"`
		ElevatedRoles  []string      `yaml:"elevated_roles"` // role names unlocking gated presets
		CommandTimeout time.Duration `yaml:"command_timeout"`
	} `yaml:"discord"`

	Channels struct {
		Suffix          string        `yaml:"suffix"`
		SweepInterval   string        `yaml:"sweep_interval"` // cron expression
		DeleteMarkerTTL time.Duration `yaml:"delete_marker_ttl"`
		FlowTimeout     time.Duration `yaml:"flow_timeout"`
	} `yaml:"channels"`

	RateLimits struct {
		Default RateRule            `yaml:"default"`
		Rules   map[string]RateRule `yaml:"rules"`
		Strict  struct {
			Threshold int           `yaml:"threshold"`
			Max       int           `yaml:"max"`
			Window    time.Duration `yaml:"window"`
		} `yaml:"strict"`
	} `yaml:"rate_limits"`

	Store struct {
		Backend string `yaml:"backend"` // memory, redis or sqlite

		Redis struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
		} `yaml:"redis"`

		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"store"`

	Dashboard struct {
		Enabled         bool          `yaml:"enabled"`
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

		Auth struct {
			JWTSecret      string        `yaml:"jwt_secret"`
			ViewerKey      string        `yaml:"viewer_key"` // shared key exchanged for a bearer token
			AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
			AllowedOrigins []string      `yaml:"allowed_origins"`
		} `yaml:"auth"`

		RateLimiting struct {
			Enabled           bool    `yaml:"enabled"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"rate_limiting"`
	} `yaml:"dashboard"`

	Analytics struct {
		BatchSize     int           `yaml:"batch_size"`
		FlushInterval time.Duration `yaml:"flush_interval"`
		Retention     time.Duration `yaml:"retention"`
	} `yaml:"analytics"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled        bool   `yaml:"enabled"`
		JaegerEndpoint string `yaml:"jaeger_endpoint"`
		ServiceName    string `yaml:"service_name"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Discord
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token must not be empty")
	}
	if len(c.Discord.LobbyNames) == 0 {
		return fmt.Errorf("discord.lobby_names must not be empty")
	}
	if c.Discord.CommandTimeout <= 0 {
		return fmt.Errorf("discord.command_timeout must be > 0")
	}

	// Channels
	if c.Channels.Suffix == "" {
		return fmt.Errorf("channels.suffix must not be empty")
	}
	if c.Channels.SweepInterval == "" {
		return fmt.Errorf("channels.sweep_interval must not be empty")
	}
	if c.Channels.DeleteMarkerTTL <= 0 {
		return fmt.Errorf("channels.delete_marker_ttl must be > 0")
	}
	if c.Channels.FlowTimeout <= 0 {
		return fmt.Errorf("channels.flow_timeout must be > 0")
	}

	// Rate limits
	if c.RateLimits.Default.Max <= 0 || c.RateLimits.Default.Window <= 0 {
		return fmt.Errorf("rate_limits.default must have max > 0 and window > 0")
	}
	for op, rule := range c.RateLimits.Rules {
		if rule.Max <= 0 || rule.Window <= 0 {
			return fmt.Errorf("rate_limits.rules.%s must have max > 0 and window > 0", op)
		}
	}
	if c.RateLimits.Strict.Threshold <= 0 {
		return fmt.Errorf("rate_limits.strict.threshold must be > 0")
	}
	if c.RateLimits.Strict.Max <= 0 || c.RateLimits.Strict.Window <= 0 {
		return fmt.Errorf("rate_limits.strict must have max > 0 and window > 0")
	}

	// Store
	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address must not be empty when store.backend=redis")
		}
		if c.Store.Redis.PoolSize <= 0 {
			return fmt.Errorf("store.redis.pool_size must be > 0 when store.backend=redis")
		}
	case StoreBackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path must not be empty when store.backend=sqlite")
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, redis, sqlite")
	}

	// Dashboard
	if c.Dashboard.Enabled {
		if c.Dashboard.Address == "" {
			return fmt.Errorf("dashboard.address must not be empty when dashboard.enabled=true")
		}
		if c.Dashboard.ReadTimeout <= 0 {
			return fmt.Errorf("dashboard.read_timeout must be > 0")
		}
		if c.Dashboard.WriteTimeout <= 0 {
			return fmt.Errorf("dashboard.write_timeout must be > 0")
		}
		if c.Dashboard.ShutdownTimeout <= 0 {
			return fmt.Errorf("dashboard.shutdown_timeout must be > 0")
		}
		if c.Dashboard.Auth.JWTSecret == "" {
			return fmt.Errorf("dashboard.auth.jwt_secret must not be empty when dashboard.enabled=true")
		}
		if c.Dashboard.Auth.AccessTokenTTL <= 0 {
			return fmt.Errorf("dashboard.auth.access_token_ttl must be > 0")
		}
		if c.Dashboard.RateLimiting.Enabled {
			if c.Dashboard.RateLimiting.RequestsPerSecond <= 0 {
				return fmt.Errorf("dashboard.rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
			}
			if c.Dashboard.RateLimiting.Burst <= 0 {
				return fmt.Errorf("dashboard.rate_limiting.burst must be > 0 when rate limiting is enabled")
			}
		}
	}

	// Analytics
	if c.Analytics.BatchSize <= 0 {
		return fmt.Errorf("analytics.batch_size must be > 0")
	}
	if c.Analytics.FlushInterval <= 0 {
		return fmt.Errorf("analytics.flush_interval must be > 0")
	}
	if c.Analytics.Retention <= 0 {
		return fmt.Errorf("analytics.retention must be > 0")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Tracing
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint must not be empty when tracing.enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// RuleFor resolves the rate rule for an operation, falling back to the
// default rule.
func (c *Config) RuleFor(op string) RateRule {
	if rule, ok := c.RateLimits.Rules[op]; ok {
		return rule
	}
	return c.RateLimits.Default
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Discord.LobbyNames = []string{"Join to Create"}
	cfg.Discord.ElevatedRoles = []string{"VIP", "Server Booster"}
	cfg.Discord.CommandTimeout = 10 * time.Second

	cfg.Channels.Suffix = " - room"
	cfg.Channels.SweepInterval = "*/5 * * * *"
	cfg.Channels.DeleteMarkerTTL = 30 * time.Second
	cfg.Channels.FlowTimeout = 30 * time.Second

	cfg.RateLimits.Default = RateRule{Max: 10, Window: time.Minute}
	cfg.RateLimits.Rules = map[string]RateRule{
		"rename":   {Max: 5, Window: time.Minute},
		"limit":    {Max: 5, Window: time.Minute},
		"bitrate":  {Max: 5, Window: time.Minute},
		"region":   {Max: 5, Window: time.Minute},
		"privacy":  {Max: 5, Window: time.Minute},
		"dnd":      {Max: 3, Window: 30 * time.Second},
		"trust":    {Max: 10, Window: time.Minute},
		"untrust":  {Max: 10, Window: time.Minute},
		"block":    {Max: 10, Window: time.Minute},
		"unblock":  {Max: 10, Window: time.Minute},
		"invite":   {Max: 5, Window: time.Minute},
		"kick":     {Max: 8, Window: time.Minute},
		"claim":    {Max: 5, Window: time.Minute},
		"transfer": {Max: 3, Window: 5 * time.Minute},
		"delete":   {Max: 3, Window: time.Minute},
		"preset":   {Max: 5, Window: time.Minute},
	}
	cfg.RateLimits.Strict.Threshold = 5
	cfg.RateLimits.Strict.Max = 3
	cfg.RateLimits.Strict.Window = 5 * time.Minute

	cfg.Store.Backend = StoreBackendMemory
	cfg.Store.Redis.Address = "localhost:6379"
	cfg.Store.Redis.DB = 0
	cfg.Store.Redis.PoolSize = 10
	cfg.Store.SQLite.Path = "tempvoice.db"

	cfg.Dashboard.Enabled = true
	cfg.Dashboard.Address = ":8080"
	cfg.Dashboard.ReadTimeout = 30 * time.Second
	cfg.Dashboard.WriteTimeout = 30 * time.Second
	cfg.Dashboard.ShutdownTimeout = 30 * time.Second
	cfg.Dashboard.Auth.JWTSecret = "change-me-in-production"
	cfg.Dashboard.Auth.ViewerKey = "change-me-too"
	cfg.Dashboard.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Dashboard.Auth.AllowedOrigins = []string{"*"}
	cfg.Dashboard.RateLimiting.Enabled = true
	cfg.Dashboard.RateLimiting.RequestsPerSecond = 50
	cfg.Dashboard.RateLimiting.Burst = 100

	cfg.Analytics.BatchSize = 50
	cfg.Analytics.FlushInterval = 5 * time.Second
	cfg.Analytics.Retention = 30 * 24 * time.Hour

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerEndpoint = "http://localhost:14268/api/traces"
	cfg.Tracing.ServiceName = "tempvoice"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("TEMPVOICE_DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if addr := os.Getenv("TEMPVOICE_DASHBOARD_ADDRESS"); addr != "" {
		c.Dashboard.Address = addr
	}
	if level := os.Getenv("TEMPVOICE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("TEMPVOICE_JWT_SECRET"); secret != "" {
		c.Dashboard.Auth.JWTSecret = secret
	}
	if backend := os.Getenv("TEMPVOICE_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
	if addr := os.Getenv("TEMPVOICE_REDIS_ADDRESS"); addr != "" {
		c.Store.Redis.Address = addr
	}
}
