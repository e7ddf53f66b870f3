package dbexec

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"k8s.io/utils/clock"
)

const (
	dryRunQueryDelay   = 10 * time.Millisecond
	dryRunQueryRuntime = time.Millisecond
	dryRunTxPause      = time.Millisecond
)

// DryRun is an Executor that never touches a database. Queries report success after a short pause
// so that the workers and statistics can be exercised end to end.
type DryRun struct {
	clock clock.Clock
}

func NewDryRun(c clock.Clock) *DryRun {
	return &DryRun{clock: c}
}

func (d *DryRun) Execute(ctx context.Context, _ string, _ []any, _ ExecOptions) Result {
	start := d.clock.Now()
	if err := d.sleep(ctx, dryRunQueryDelay); err != nil {
		return Result{Status: classify(err), Start: start, Stop: d.clock.Now(), Err: err}
	}
	return Result{Status: StatusOK, Start: start, Stop: start.Add(dryRunQueryRuntime)}
}

func (d *DryRun) CallBool(ctx context.Context, _ string, _ ...any) (bool, error) {
	return true, d.sleep(ctx, dryRunTxPause)
}

func (d *DryRun) Exec(ctx context.Context, _ string, _ ...any) error {
	return d.sleep(ctx, dryRunTxPause)
}

func (d *DryRun) QueryRow(context.Context, string, ...any) pgx.Row {
	return noRow{}
}

func (d *DryRun) DatabaseSize(context.Context) (int64, error) {
	return 0, nil
}

func (d *DryRun) ColumnstoreStats(context.Context) ([]ColumnstoreStat, error) {
	return []ColumnstoreStat{}, nil
}

func (d *DryRun) Close() {}

func (d *DryRun) sleep(ctx context.Context, duration time.Duration) error {
	timer := d.clock.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

type noRow struct{}

func (noRow) Scan(...any) error {
	return pgx.ErrNoRows
}
