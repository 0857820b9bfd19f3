// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	LLM       LLMConfig       `mapstructure:"llm"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig controls access to the relational database.
type DatabaseConfig struct {
	Driver            string        `mapstructure:"driver"`
	URL               string        `mapstructure:"url"`
	SSLEnabled        bool          `mapstructure:"ssl_enabled"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	MaxConns          int           `mapstructure:"max_conns"`
	MinConns          int           `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// ArchiveConfig configures the book archive scraper.
type ArchiveConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Delay           time.Duration `mapstructure:"delay"`
	MaxContentBytes int           `mapstructure:"max_content_bytes"`
	TruncateChars   int           `mapstructure:"truncate_chars"`
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimitConfig bounds analysis requests per client IP.
type RateLimitConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AnalysisRequests int           `mapstructure:"analysis_requests"`
	Window           time.Duration `mapstructure:"window"`
}

// envAliases binds the environment names the service has always read.
var envAliases = map[string][]string{
	"server.host":          {"GUTENBERG_SERVER_HOST", "HOST"},
	"server.port":          {"GUTENBERG_SERVER_PORT", "PORT"},
	"database.url":         {"GUTENBERG_DATABASE_URL", "DATABASE_URL"},
	"database.ssl_enabled": {"GUTENBERG_DATABASE_SSL_ENABLED", "USE_DATABASE_SSL"},
	"database.ssl_mode":    {"GUTENBERG_DATABASE_SSL_MODE", "PGSQL_SSL_MODE"},
	"llm.api_key":          {"GUTENBERG_LLM_API_KEY", "GROQ_API_KEY"},
}

var sslModes = map[string]bool{
	"disable": true, "allow": true, "prefer": true,
	"require": true, "verify-ca": true, "verify-full": true,
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", ".env.local"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GUTENBERG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.ssl_enabled", true)
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.health_check_period", time.Minute)
	v.SetDefault("database.migrate_on_start", true)
	v.SetDefault("archive.base_url", "https://www.gutenberg.org")
	v.SetDefault("archive.user_agent", "gutenberg-back/1.0 (+https://github.com/jeancds29/gutenberg-back)")
	v.SetDefault("archive.timeout", 30*time.Second)
	v.SetDefault("archive.delay", 0)
	v.SetDefault("archive.max_content_bytes", 8*1024*1024)
	v.SetDefault("archive.truncate_chars", 7500000)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama3-70b-8192")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.requests_per_minute", 30)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 300)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.analysis_requests", 20)
	v.SetDefault("ratelimit.window", time.Minute)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be > 0")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url (DATABASE_URL) is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.Database.SSLEnabled && !sslModes[c.Database.SSLMode] {
		return fmt.Errorf("database.ssl_mode %q is not a libpq sslmode", c.Database.SSLMode)
	}
	if c.Database.MaxConns < 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return errors.New("database.min_conns/max_conns must satisfy 0 <= min <= max")
	}
	if u, err := url.Parse(c.Archive.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("archive.base_url %q must be an absolute URL", c.Archive.BaseURL)
	}
	if c.Archive.Timeout <= 0 {
		return errors.New("archive.timeout must be > 0")
	}
	if c.Archive.MaxContentBytes <= 0 || c.Archive.TruncateChars <= 0 {
		return errors.New("archive.max_content_bytes and archive.truncate_chars must be > 0")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must be >= 0")
	}
	if c.RateLimit.Enabled && (c.RateLimit.AnalysisRequests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("ratelimit.analysis_requests and ratelimit.window must be > 0 when enabled")
	}
	return nil
}
