package dbexec

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/common/database"
)

const (
	databaseSizeSql     = "SELECT pg_database_size(current_database())"
	columnstoreStatsSql = "SELECT DISTINCT table_name, relation_blocks, compressed_blocks, cache_pages_usable " +
		"FROM swarm64da.stat_all_column_store_indexes"
)

// Extra time the client waits beyond the server-side statement timeout before giving up locally.
const localTimeoutGrace = 5 * time.Second

// Postgres executes statements on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres connects to the database described by config.
func OpenPostgres(ctx context.Context, config database.PostgresConfig) (*Postgres, error) {
	pool, err := database.OpenPgxPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewPostgres(pool), nil
}

func (p *Postgres) Execute(ctx context.Context, sql string, args []any, opts ExecOptions) Result {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout+localTimeoutGrace)
		defer cancel()
	}

	result := Result{Start: time.Now()}
	err := p.pool.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if opts.Timeout > 0 {
			timeout := fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.Timeout.Milliseconds())
			if _, err := tx.Exec(ctx, timeout); err != nil {
				return err
			}
		}
		if opts.Explain {
			return p.explain(ctx, tx, sql, args, &result)
		}
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			result.Rows++
		}
		return rows.Err()
	})
	result.Stop = time.Now()
	result.Status = classify(err)
	if err != nil {
		result.Err = errors.WithStack(err)
	}
	return result
}

func (p *Postgres) explain(ctx context.Context, tx pgx.Tx, sql string, args []any, result *Result) error {
	var raw string
	if err := tx.QueryRow(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+sql, args...).Scan(&raw); err != nil {
		return err
	}
	plan, err := ParsePlan([]byte(raw))
	if err != nil {
		return err
	}
	result.Plan = plan
	result.PlanText = raw
	_, result.Rows = plan.SumRows()
	return nil
}

func (p *Postgres) CallBool(ctx context.Context, sql string, args ...any) (bool, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return false, ClassifyTxError(err)
	}
	var ok bool
	if err := tx.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		_ = tx.Rollback(ctx)
		return false, ClassifyTxError(err)
	}
	if !ok {
		return false, ClassifyTxError(tx.Rollback(ctx))
	}
	return true, ClassifyTxError(tx.Commit(ctx))
}

func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.pool.Exec(ctx, sql, args...)
	return ClassifyTxError(err)
}

func (p *Postgres) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *Postgres) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	if err := p.pool.QueryRow(ctx, databaseSizeSql).Scan(&size); err != nil {
		return 0, errors.WithStack(err)
	}
	return size, nil
}

// ColumnstoreStats lists columnstore index usage. Databases without the columnstore extension
// return an empty list.
func (p *Postgres) ColumnstoreStats(ctx context.Context) ([]ColumnstoreStat, error) {
	rows, err := p.pool.Query(ctx, columnstoreStatsSql)
	if err != nil {
		if isUndefinedRelation(err) {
			return []ColumnstoreStat{}, nil
		}
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	stats := []ColumnstoreStat{}
	for rows.Next() {
		var s ColumnstoreStat
		if err := rows.Scan(&s.TableName, &s.RelationBlocks, &s.CompressedBlocks, &s.CachePagesUsable); err != nil {
			return nil, errors.WithStack(err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		if isUndefinedRelation(err) {
			return []ColumnstoreStat{}, nil
		}
		return nil, errors.WithStack(err)
	}
	return stats, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
