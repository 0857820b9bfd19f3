package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  host: 127.0.0.1
  port: 9090
  request_timeout: 45s
logging:
  development: true
  level: debug
database:
  driver: memory
archive:
  base_url: http://archive.local
  timeout: 5s
  truncate_chars: 1000
llm:
  model: llama-3.3-70b-versatile
  requests_per_minute: 0
cors:
  allowed_origins: ["https://reader.example"]
ratelimit:
  analysis_requests: 3
  window: 10s
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Server.Addr(); got != "127.0.0.1:9090" {
		t.Fatalf("expected addr 127.0.0.1:9090, got %s", got)
	}
	if cfg.Server.RequestTimeout != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", cfg.Server.RequestTimeout)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging overrides, got %+v", cfg.Logging)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Database.Driver)
	}
	if cfg.Archive.BaseURL != "http://archive.local" || cfg.Archive.Timeout != 5*time.Second {
		t.Fatalf("expected archive overrides, got %+v", cfg.Archive)
	}
	if cfg.Archive.MaxContentBytes != 8*1024*1024 {
		t.Fatalf("expected default max content bytes, got %d", cfg.Archive.MaxContentBytes)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" || cfg.LLM.RequestsPerMinute != 0 {
		t.Fatalf("expected llm overrides, got %+v", cfg.LLM)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://reader.example" {
		t.Fatalf("expected cors origins override, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateLimit.AnalysisRequests != 3 || cfg.RateLimit.Window != 10*time.Second {
		t.Fatalf("expected ratelimit overrides, got %+v", cfg.RateLimit)
	}
}

func TestLoadReadsLegacyEnvironmentNames(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pw@db:5432/gutenberg")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PORT", "8123")
	t.Setenv("USE_DATABASE_SSL", "false")
	t.Setenv("PGSQL_SSL_MODE", "verify-full")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://user:pw@db:5432/gutenberg" {
		t.Fatalf("expected DATABASE_URL to bind, got %q", cfg.Database.URL)
	}
	if cfg.LLM.APIKey != "gsk_test" {
		t.Fatalf("expected GROQ_API_KEY to bind, got %q", cfg.LLM.APIKey)
	}
	if cfg.Server.Port != 8123 {
		t.Fatalf("expected PORT to bind, got %d", cfg.Server.Port)
	}
	if cfg.Database.SSLEnabled || cfg.Database.SSLMode != "verify-full" {
		t.Fatalf("expected ssl env to bind, got %+v", cfg.Database)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("expected defaults to apply, got %+v %+v", cfg.Server, cfg.LLM)
	}
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://legacy/db")
	t.Setenv("GUTENBERG_DATABASE_URL", "postgres://prefixed/db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://prefixed/db" {
		t.Fatalf("expected prefixed variable to win, got %q", cfg.Database.URL)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GUTENBERG_TEST_DOTENV=from-file\nGUTENBERG_TEST_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("GUTENBERG_TEST_KEEP", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("GUTENBERG_TEST_DOTENV") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("GUTENBERG_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("GUTENBERG_TEST_KEEP"); got != "from-env" {
		t.Fatalf("expected process env to win, got %q", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:   ServerConfig{Port: 8000, RequestTimeout: time.Minute},
		Database: DatabaseConfig{Driver: DriverPostgres, URL: "postgres://x/y", SSLEnabled: true, SSLMode: "require", MaxConns: 5},
		Archive:  ArchiveConfig{BaseURL: "https://www.gutenberg.org", Timeout: time.Second, MaxContentBytes: 10, TruncateChars: 5},
		LLM:      LLMConfig{Model: "m"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"bad ssl mode", func(c *Config) { c.Database.SSLMode = "sometimes" }, "database.ssl_mode"},
		{"min above max", func(c *Config) { c.Database.MinConns = 9 }, "database.min_conns"},
		{"relative archive url", func(c *Config) { c.Archive.BaseURL = "/ebooks" }, "archive.base_url"},
		{"zero archive timeout", func(c *Config) { c.Archive.Timeout = 0 }, "archive.timeout"},
		{"zero truncate", func(c *Config) { c.Archive.TruncateChars = 0 }, "archive.truncate_chars"},
		{"missing model", func(c *Config) { c.LLM.Model = "" }, "llm.model"},
		{"negative llm rate", func(c *Config) { c.LLM.RequestsPerMinute = -1 }, "llm.requests_per_minute"},
		{"ratelimit without window", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, AnalysisRequests: 5}
		}, "ratelimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mod(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
