// Package postgres provides the Postgres-backed library.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

// Postgres error codes the store maps onto library errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidPassword     = "28P01"
	codeInvalidCatalogName  = "3D000"
)

// Config controls the Postgres connection pool.
type Config struct {
	URL               string
	SSLEnabled        bool
	SSLMode           string
	ConnectTimeout    time.Duration
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store persists books and analyses in Postgres.
type Store struct {
	pool pool
}

var _ library.Store = (*Store)(nil)

// Open connects a pool using cfg and verifies it with a ping. Connection
// failures are logged with a hint about the likely cause.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		logger.Error("postgres unreachable",
			zap.String("url", MaskURL(cfg.URL)),
			zap.String("hint", Hint(err)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres connected",
		zap.String("url", MaskURL(cfg.URL)),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &Store{pool: p}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, errors.New("pool is required")
	}
	return &Store{pool: p}, nil
}

// PoolConfig parses the connection string and applies pool limits.
func PoolConfig(cfg Config) (*pgxpool.Config, error) {
	dsn, err := ConnString(cfg)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return poolCfg, nil
}

var sslModeParam = regexp.MustCompile(`(^|\s)sslmode=\S*`)

// ConnString returns cfg.URL with the sslmode parameter settled. With SSL off
// the mode is always disable. With SSL on, an sslmode already in the URL wins
// over cfg.SSLMode.
func ConnString(cfg Config) (string, error) {
	if cfg.URL == "" {
		return "", errors.New("database url is required")
	}
	mode := "disable"
	if cfg.SSLEnabled {
		mode = cfg.SSLMode
		if mode == "" {
			mode = "require"
		}
	}

	if !strings.HasPrefix(cfg.URL, "postgres://") && !strings.HasPrefix(cfg.URL, "postgresql://") {
		// key=value form
		if sslModeParam.MatchString(cfg.URL) {
			if cfg.SSLEnabled {
				return cfg.URL, nil
			}
			return sslModeParam.ReplaceAllString(cfg.URL, "${1}sslmode=disable"), nil
		}
		return cfg.URL + " sslmode=" + mode, nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") != "" && cfg.SSLEnabled {
		return cfg.URL, nil
	}
	q.Set("sslmode", mode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MaskURL hides the password of a postgres URL for logging.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		if strings.Contains(raw, "password=") {
			return "<redacted>"
		}
		return raw
	}
	return u.Redacted()
}

// Hint describes the likely cause of a connection failure.
func Hint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword:
			return "authentication failed: check the user and password in the database url"
		case codeInvalidCatalogName:
			return "database does not exist: create it or fix the database name"
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"):
		return "host not found: check the hostname in the database url"
	case strings.Contains(msg, "connection refused"):
		return "connection refused: is postgres running and listening on that port?"
	case strings.Contains(msg, "ssl") || strings.Contains(msg, "tls"):
		return "ssl negotiation failed: try USE_DATABASE_SSL=false if the server does not support ssl, or change PGSQL_SSL_MODE"
	case strings.Contains(msg, "timeout") || errors.Is(err, context.DeadlineExceeded):
		return "connection timed out: check network access and firewall rules"
	case strings.Contains(msg, "password authentication failed"):
		return "authentication failed: check the user and password in the database url"
	default:
		return "check the database url and that the server is reachable"
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
