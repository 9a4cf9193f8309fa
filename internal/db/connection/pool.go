package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/saint-community/querybuilder/internal/config"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	config config.DatabaseConfig
}

// NewPool creates a new connection pool. When the configured password is
// empty and use_keyring is set, the password is looked up in the keyring.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, passwords *PasswordStore) (*Pool, error) {
	if cfg.Password == "" && cfg.UseKeyring && passwords != nil {
		password, err := passwords.Get(cfg.Host, cfg.Port, cfg.Name, cfg.User)
		if err != nil && !errors.Is(err, ErrPasswordNotFound) {
			return nil, err
		}
		cfg.Password = password
	}

	poolConfig, err := pgxpool.ParseConfig(ConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 5
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{
		pool:   pool,
		db:     stdlib.OpenDBFromPool(pool),
		config: cfg,
	}, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.db != nil {
		_ = p.db.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// DB returns a database/sql handle backed by the pool
func (p *Pool) DB() *sql.DB {
	return p.db
}

// ConnectionString creates a PostgreSQL connection URL. The password is
// included only when set.
func ConnectionString(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	return u.String()
}
