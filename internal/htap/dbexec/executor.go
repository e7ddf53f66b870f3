// Package dbexec runs workload statements against the database under test.
package dbexec

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
)

type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	default:
		return "error"
	}
}

type ExecOptions struct {
	// Server-side statement timeout; 0 means none.
	Timeout time.Duration
	// Run the statement under EXPLAIN ANALYZE and collect the plan.
	Explain bool
}

type Result struct {
	Status   Status
	Start    time.Time
	Stop     time.Time
	Rows     int64
	Plan     *PlanNode
	PlanText string
	Err      error
}

func (r Result) Runtime() time.Duration {
	return r.Stop.Sub(r.Start)
}

// ColumnstoreStat is one row of the columnstore index statistics view.
type ColumnstoreStat struct {
	TableName        string
	RelationBlocks   int64
	CompressedBlocks int64
	CachePagesUsable int64
}

// Executor is the database seen by the workers.
type Executor interface {
	// Execute runs a read query to completion and classifies the outcome. It never panics or
	// returns a Go error; failures are reported through Result.
	Execute(ctx context.Context, sql string, args []any, opts ExecOptions) Result
	// CallBool runs a function returning a boolean in its own transaction, committing when the
	// function returns true and rolling back otherwise.
	CallBool(ctx context.Context, sql string, args ...any) (bool, error)
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	DatabaseSize(ctx context.Context) (int64, error)
	ColumnstoreStats(ctx context.Context) ([]ColumnstoreStat, error)
	Close()
}
