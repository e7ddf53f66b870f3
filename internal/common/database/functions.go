package database

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/common/logging"
)

// PostgresConfig describes how to reach a postgres database. Dsn takes precedence over Connection.
type PostgresConfig struct {
	Dsn            string
	Connection     map[string]string
	MaxConns       int32
	ConnectRetries uint
	RetryDelay     time.Duration
}

// ConnectionString returns the configured DSN, or a libpq key/value string built from Connection.
func (c PostgresConfig) ConnectionString() string {
	if c.Dsn != "" {
		return c.Dsn
	}
	return CreateConnectionString(c.Connection)
}

func CreateConnectionString(values map[string]string) string {
	// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(parts, " ")
}

// OpenPgxPool connects to postgres, retrying while the server is unreachable, and pings it once connected.
func OpenPgxPool(ctx context.Context, config PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	var db *pgxpool.Pool
	err = withRetries(ctx, config, func() error {
		pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		db = pool
		return nil
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to %s", poolConfig.ConnConfig.Host)
	}
	return db, nil
}

// OpenSqlDb opens a database/sql handle backed by lib/pq.
func OpenSqlDb(ctx context.Context, config PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = withRetries(ctx, config, func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "failed to connect to stats database")
	}
	return db, nil
}

func withRetries(ctx context.Context, config PostgresConfig, action func() error) error {
	attempts := config.ConnectRetries
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		action,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(config.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.WithError(err).Warnf("Database not reachable, retrying (attempt %d of %d)", n+1, attempts)
		}),
	)
}
