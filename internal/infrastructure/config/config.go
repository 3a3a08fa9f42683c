package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all engine configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Matching MatchingConfig
	Locking  LockingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the Postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings for the distributed lock
// backend. Unused when locking.mode is "memory".
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// MatchingConfig holds the three-way matching tolerance policy. The
// 5%/25% bands are defaults, not business law.
type MatchingConfig struct {
	TolerancePct        float64
	HighVariancePct     float64
	MissingInvoiceGrace time.Duration
}

// LockingConfig controls the per-item / per-invoice lock manager
type LockingConfig struct {
	Mode           string        // "memory" or "redis"
	AcquireTimeout time.Duration // how long to wait before returning Busy
	TTL            time.Duration // lock lease duration (redis mode)
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest): env vars with SL_ prefix, config.toml,
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine: defaults plus env vars apply
	}

	v.SetEnvPrefix("SL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Matching: MatchingConfig{
			TolerancePct:        v.GetFloat64("matching.tolerance_pct"),
			HighVariancePct:     v.GetFloat64("matching.high_variance_pct"),
			MissingInvoiceGrace: v.GetDuration("matching.missing_invoice_grace"),
		},
		Locking: LockingConfig{
			Mode:           v.GetString("locking.mode"),
			AcquireTimeout: v.GetDuration("locking.acquire_timeout"),
			TTL:            v.GetDuration("locking.ttl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers built-in defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockledger")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "stockledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.max_header_bytes", 1<<20)

	v.SetDefault("matching.tolerance_pct", 5.0)
	v.SetDefault("matching.high_variance_pct", 25.0)
	v.SetDefault("matching.missing_invoice_grace", 7*24*time.Hour)

	v.SetDefault("locking.mode", "memory")
	v.SetDefault("locking.acquire_timeout", 5*time.Second)
	v.SetDefault("locking.ttl", 30*time.Second)
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Matching.TolerancePct < 0 || c.Matching.HighVariancePct < c.Matching.TolerancePct {
		return fmt.Errorf("invalid matching thresholds: tolerance %.2f, high %.2f",
			c.Matching.TolerancePct, c.Matching.HighVariancePct)
	}
	if c.Locking.Mode != "memory" && c.Locking.Mode != "redis" {
		return fmt.Errorf("invalid locking mode %q", c.Locking.Mode)
	}
	if c.Locking.AcquireTimeout <= 0 {
		return fmt.Errorf("locking acquire timeout must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
