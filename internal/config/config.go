package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	S3        S3Config
	Pricing   PricingConfig
	Numbering NumberingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	MaxConnections   int
	MinConnections   int
	MaxConnLifetime  int // seconds
	ConnectRetries   int // startup ping retries while the database comes up
	StatementTimeout int // milliseconds, 0 disables
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for price sheets.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "price-sheets/")
}

// PricingConfig holds settings of the pricing and merchandising flows.
type PricingConfig struct {
	BudgetsFile   string // YAML budget definitions; built-in defaults when empty
	SeededShuffle bool   // page-stable budget shuffles when a seed is supplied
	FetchRetries  int    // retries of catalogue/settings fetches
	CacheSize     int    // resolved price cache entries
	CacheTTL      int    // seconds a resolved price stays cached
}

// NumberingConfig configures quote/order number generation.
type NumberingConfig struct {
	Node int64 // snowflake node id, unique per running instance
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetInt("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Database:         v.GetString("DB_NAME"),
			MaxConnections:   v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:   v.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime:  v.GetInt("DB_MAX_CONN_LIFETIME"),
			ConnectRetries:   v.GetInt("DB_CONNECT_RETRIES"),
			StatementTimeout: v.GetInt("DB_STATEMENT_TIMEOUT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			APIKey: v.GetString("API_KEY"),
		},
		S3: S3Config{
			Enabled: v.GetBool("S3_ENABLED"),
			Bucket:  v.GetString("S3_BUCKET"),
			Region:  v.GetString("S3_REGION"),
			Prefix:  v.GetString("S3_PREFIX"),
		},
		Pricing: PricingConfig{
			BudgetsFile:   v.GetString("PRICING_BUDGETS_FILE"),
			SeededShuffle: v.GetBool("PRICING_SHUFFLE_SEEDED"),
			FetchRetries:  v.GetInt("PRICING_FETCH_RETRIES"),
			CacheSize:     v.GetInt("PRICING_CACHE_SIZE"),
			CacheTTL:      v.GetInt("PRICING_CACHE_TTL"),
		},
		Numbering: NumberingConfig{
			Node: v.GetInt64("NUMBERING_NODE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults registers the default of every setting read by Load.
func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_MIN_CONNECTIONS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", 300)
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", 30_000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("API_KEY", "")
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "price-sheets/")
	v.SetDefault("PRICING_BUDGETS_FILE", "")
	v.SetDefault("PRICING_SHUFFLE_SEEDED", true)
	v.SetDefault("PRICING_FETCH_RETRIES", 3)
	v.SetDefault("PRICING_CACHE_SIZE", 10_000)
	v.SetDefault("PRICING_CACHE_TTL", 300)
	v.SetDefault("NUMBERING_NODE", 1)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Database.ConnectRetries < 0 {
		return fmt.Errorf("database connect retries cannot be negative")
	}

	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database statement timeout cannot be negative")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Pricing.FetchRetries < 0 {
		return fmt.Errorf("pricing fetch retries cannot be negative")
	}

	if c.Pricing.CacheSize < 0 {
		return fmt.Errorf("pricing cache size cannot be negative")
	}

	if c.Pricing.CacheTTL < 0 {
		return fmt.Errorf("pricing cache TTL cannot be negative")
	}

	// snowflake node ids are 10 bits wide
	if c.Numbering.Node < 0 || c.Numbering.Node > 1023 {
		return fmt.Errorf("invalid numbering node: %d (must be 0-1023)", c.Numbering.Node)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
