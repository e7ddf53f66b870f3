// Package dbexectest provides an in-memory dbexec.Executor for tests.
package dbexectest

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"github.com/armadaproject/htapbench/internal/htap/dbexec"
)

type Call struct {
	Sql  string
	Args []any
}

// Fake records every call. Unset hooks succeed.
type Fake struct {
	OnExecute  func(sql string, opts dbexec.ExecOptions) dbexec.Result
	OnCallBool func(sql string, args []any) (bool, error)
	OnExec     func(sql string, args []any) error
	OnQueryRow func(sql string, args []any) pgx.Row

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Sql: sql, Args: args})
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) Execute(_ context.Context, sql string, args []any, opts dbexec.ExecOptions) dbexec.Result {
	f.record(sql, args)
	if f.OnExecute != nil {
		return f.OnExecute(sql, opts)
	}
	return dbexec.Result{Status: dbexec.StatusOK}
}

func (f *Fake) CallBool(_ context.Context, sql string, args ...any) (bool, error) {
	f.record(sql, args)
	if f.OnCallBool != nil {
		return f.OnCallBool(sql, args)
	}
	return true, nil
}

func (f *Fake) Exec(_ context.Context, sql string, args ...any) error {
	f.record(sql, args)
	if f.OnExec != nil {
		return f.OnExec(sql, args)
	}
	return nil
}

func (f *Fake) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	if f.OnQueryRow != nil {
		return f.OnQueryRow(sql, args)
	}
	return Row{Err: pgx.ErrNoRows}
}

func (f *Fake) DatabaseSize(context.Context) (int64, error) {
	return 0, nil
}

func (f *Fake) ColumnstoreStats(context.Context) ([]dbexec.ColumnstoreStat, error) {
	return []dbexec.ColumnstoreStat{}, nil
}

func (f *Fake) Close() {}

// Row scans fixed values into its destinations.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	for i, d := range dest {
		if i >= len(r.Values) {
			break
		}
		switch d := d.(type) {
		case *int64:
			*d = r.Values[i].(int64)
		case *int:
			*d = r.Values[i].(int)
		case *bool:
			*d = r.Values[i].(bool)
		case *string:
			*d = r.Values[i].(string)
		default:
			if scanner, ok := d.(interface{ Set(src interface{}) error }); ok {
				if err := scanner.Set(r.Values[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
