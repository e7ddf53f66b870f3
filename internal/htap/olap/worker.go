// Package olap implements the analytical query streams. A stream cycles through its queries,
// waiting until enough simulated history exists and mapping the query dates onto it.
package olap

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	htapclock "github.com/armadaproject/htapbench/internal/htap/clock"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

const freshnessPollInterval = time.Second

// PlanWriter stores the execution plan of a query.
type PlanWriter interface {
	WritePlan(streamID, queryID int, plan string) error
}

type Params struct {
	StreamID  int
	Catalog   *Catalog
	Executor  dbexec.Executor
	DataClock *htapclock.DataClock
	Queue     *events.Queue
	Clock     clock.Clock
	Ignored   map[int]bool
	// Simulated history required before queries run; ignored when WaitForData is false.
	RequiredWindow time.Duration
	WaitForData    bool
	Timeout        time.Duration
	Explain        bool
	// Optional.
	Plans PlanWriter
}

type Worker struct {
	Params
	queries []int
}

func NewWorker(p Params) *Worker {
	return &Worker{
		Params:  p,
		queries: p.Catalog.Stream(p.StreamID),
	}
}

// Run executes the stream until ctx is cancelled. Query failures are reported as events, not errors.
func (w *Worker) Run(ctx *htapcontext.Context) error {
	ctx = htapcontext.WithLogField(ctx, "stream", w.StreamID)
	ctx.Log.Debug("olap stream started")

	next := 0
	iteration := 1
	executed := false
	passStart := w.Clock.Now()
	for ctx.Err() == nil {
		queryID := w.queries[next]
		ran, err := w.runQuery(ctx, queryID, iteration)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return errors.WithMessagef(err, "query %d failed on stream %d", queryID, w.StreamID)
		}
		executed = executed || ran
		next = (next + 1) % len(w.queries)
		if next == 0 {
			now := w.Clock.Now()
			w.Queue.Put(events.StreamIteration{
				StreamID:  w.StreamID,
				Iteration: iteration,
				Runtime:   now.Sub(passStart),
				Timestamp: now,
			})
			// Every query of the stream is ignored.
			if !executed && w.sleep(ctx, freshnessPollInterval) != nil {
				break
			}
			iteration++
			executed = false
			passStart = w.Clock.Now()
		}
	}
	ctx.Log.Debug("olap stream stopped")
	return nil
}

// runQuery executes one query and reports whether it reached the database.
func (w *Worker) runQuery(ctx *htapcontext.Context, queryID, iteration int) (bool, error) {
	if w.Ignored[queryID] {
		w.emit(queryID, iteration, events.Ignored)
		return false, nil
	}
	if w.WaitForData {
		if err := w.waitForData(ctx, queryID, iteration); err != nil {
			return false, err
		}
	}

	sql, err := w.Catalog.Render(queryID, ParamsFor(queryID, w.StreamID, w.DataClock.Min(), w.DataClock.Latest()))
	if err != nil {
		return false, err
	}

	w.emit(queryID, iteration, events.Running)
	// A started query is bounded by its own timeout rather than by the run.
	result := w.Executor.Execute(htapcontext.Detached(ctx), sql, nil, dbexec.ExecOptions{
		Timeout: w.Timeout,
		Explain: w.Explain,
	})

	ev := events.OlapEvent{
		StreamID:  w.StreamID,
		QueryID:   queryID,
		Iteration: iteration,
		Runtime:   result.Runtime(),
		Timestamp: w.Clock.Now(),
	}
	switch result.Status {
	case dbexec.StatusOK:
		ev.Status = events.OK
		ev.PlannedRows, ev.ProcessedRows = result.Plan.SumRows()
	case dbexec.StatusTimeout:
		ev.Status = events.Timeout
	default:
		ev.Status = events.Error
		ctx.Log.WithError(result.Err).WithField("query", queryID).Warn("analytical query failed")
	}
	w.Queue.Put(ev)

	if w.Explain && w.Plans != nil && result.PlanText != "" {
		if err := w.Plans.WritePlan(w.StreamID, queryID, result.PlanText); err != nil {
			ctx.Log.WithError(err).WithField("query", queryID).Warn("failed to write query plan")
		}
	}
	return true, nil
}

// waitForData blocks until the data clock spans the required window.
func (w *Worker) waitForData(ctx *htapcontext.Context, queryID, iteration int) error {
	for w.DataClock.Span() < w.RequiredWindow {
		w.emit(queryID, iteration, events.Waiting)
		if err := w.sleep(ctx, freshnessPollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) sleep(ctx *htapcontext.Context, d time.Duration) error {
	timer := w.Clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

func (w *Worker) emit(queryID, iteration int, status events.OlapStatus) {
	w.Queue.Put(events.OlapEvent{
		StreamID:  w.StreamID,
		QueryID:   queryID,
		Iteration: iteration,
		Status:    status,
		Timestamp: w.Clock.Now(),
	})
}
