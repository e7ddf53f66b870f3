// Package maintenance periodically vacuums and analyzes the tables the transactional workload
// churns through.
package maintenance

import (
	"time"

	"github.com/jackc/pgx/v4"
	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
)

// Recorder is told about every maintenance run.
type Recorder interface {
	RecordMaintenance(table string, err error)
}

type Params struct {
	Executor dbexec.Executor
	Interval time.Duration
	Tables   []string
	Clock    clock.WithTicker
	Recorder Recorder
}

type Worker struct {
	Params
}

func NewWorker(p Params) *Worker {
	return &Worker{Params: p}
}

// Run vacuums every table once per interval until ctx is cancelled. Failures are logged and
// counted but never stop the run.
func (w *Worker) Run(ctx *htapcontext.Context) error {
	if w.Interval <= 0 || len(w.Tables) == 0 {
		return nil
	}
	ctx = htapcontext.WithLogField(ctx, "worker", "maintenance")
	ticker := w.Clock.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			w.vacuum(ctx)
		}
	}
}

func (w *Worker) vacuum(ctx *htapcontext.Context) {
	for _, table := range w.Tables {
		if ctx.Err() != nil {
			return
		}
		start := w.Clock.Now()
		err := w.Executor.Exec(ctx, "VACUUM ANALYZE "+pgx.Identifier{table}.Sanitize())
		if w.Recorder != nil {
			w.Recorder.RecordMaintenance(table, err)
		}
		if err != nil {
			ctx.Log.WithError(err).WithField("table", table).Warn("VACUUM ANALYZE failed")
			continue
		}
		ctx.Log.WithField("table", table).Debugf("VACUUM ANALYZE took %s", w.Clock.Since(start))
	}
}
