package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// DESKTOP_UIA_ENGINE_MAX_NODES.
const EnvPrefix = "DESKTOP_UIA"

// Config holds the full application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Input  InputConfig  `mapstructure:"input"  yaml:"input"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level"        yaml:"level"`
	Format      string `mapstructure:"format"       yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source"   yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file"     yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size"     yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"      yaml:"max_age"`
	Compress    bool   `mapstructure:"compress"     yaml:"compress"`
}

// EngineConfig bounds tree traversal and identity bookkeeping.
type EngineConfig struct {
	// MaxNodes caps the number of nodes visited by a single walk.
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
	// MaxDepth caps traversal depth when the query sets no exact depth.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
	// QueueSize is the number of requests that may wait for the worker.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
	// IdentityTTL is how long registered element fingerprints are kept.
	IdentityTTL time.Duration `mapstructure:"identity_ttl" yaml:"identity_ttl"`
	// RegexTimeout bounds a single name pattern evaluation.
	RegexTimeout time.Duration `mapstructure:"regex_timeout" yaml:"regex_timeout"`
}

// InputConfig throttles injected input.
type InputConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"` // 0 disables throttling
	Burst         int     `mapstructure:"burst"           yaml:"burst"`
	SelectAllKeys string  `mapstructure:"select_all_keys" yaml:"select_all_keys"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport   string `mapstructure:"transport"    yaml:"transport"` // "stdio" or "streamable-http"
	Port        int    `mapstructure:"port"         yaml:"port"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"` // empty disables the metrics endpoint
	// WindowRefresh is how often the server re-lists windows to drop
	// identities of closed ones.
	WindowRefresh time.Duration `mapstructure:"window_refresh" yaml:"window_refresh"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "desktop-uia")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.max_nodes", 20000)
	v.SetDefault("engine.max_depth", 64)
	v.SetDefault("engine.queue_size", 64)
	v.SetDefault("engine.identity_ttl", "10m")
	v.SetDefault("engine.regex_timeout", "100ms")

	// -- Input --
	v.SetDefault("input.rate_per_second", 50.0)
	v.SetDefault("input.burst", 10)
	v.SetDefault("input.select_all_keys", "ctrl+a")

	// -- Server --
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_addr", "")
	v.SetDefault("server.window_refresh", "2s")
}

// NewDefaultConfig returns a config populated only from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and returns the
// validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Engine.MaxNodes <= 0 {
		return fmt.Errorf("engine.max_nodes must be a positive integer")
	}
	if c.Engine.MaxDepth <= 0 {
		return fmt.Errorf("engine.max_depth must be a positive integer")
	}
	if c.Engine.QueueSize <= 0 {
		return fmt.Errorf("engine.queue_size must be a positive integer")
	}
	if c.Engine.IdentityTTL <= 0 {
		return fmt.Errorf("engine.identity_ttl must be positive")
	}
	if c.Engine.RegexTimeout <= 0 {
		return fmt.Errorf("engine.regex_timeout must be positive")
	}
	if c.Input.RatePerSecond < 0 {
		return fmt.Errorf("input.rate_per_second must not be negative")
	}
	if c.Input.RatePerSecond > 0 && c.Input.Burst <= 0 {
		return fmt.Errorf("input.burst must be a positive integer when throttling is enabled")
	}
	if strings.TrimSpace(c.Input.SelectAllKeys) == "" {
		return fmt.Errorf("input.select_all_keys must not be empty")
	}
	if c.Server.WindowRefresh < 0 {
		return fmt.Errorf("server.window_refresh must not be negative")
	}
	switch c.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("server.transport must be stdio or streamable-http, got %q", c.Server.Transport)
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	return nil
}
