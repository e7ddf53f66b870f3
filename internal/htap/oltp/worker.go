// Package oltp implements the transactional workers. Each worker paces itself against a shared
// admission schedule, runs the order-entry transaction mix and reports completions in batches.
package oltp

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	htapclock "github.com/armadaproject/htapbench/internal/htap/clock"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/random"
)

const flushInterval = 100 * time.Millisecond

type Params struct {
	ID         int
	Seed       uint64
	Warehouses int
	Executor   dbexec.Executor
	Pacer      *htapclock.Pacer
	DataClock  *htapclock.DataClock
	Queue      *events.Queue
	Clock      clock.PassiveClock
}

type Worker struct {
	id        int
	generator *generator
	executor  dbexec.Executor
	pacer     *htapclock.Pacer
	dataClock *htapclock.DataClock
	queue     *events.Queue
	clock     clock.PassiveClock

	pending   []events.TxSample
	lastFlush time.Time
}

func NewWorker(p Params) *Worker {
	rng := random.New(p.Seed)
	warehouses := p.Warehouses
	if warehouses < 1 {
		warehouses = 1
	}
	timestamps := random.NewTimestampGenerator(p.DataClock.Latest(), rng, random.TransactionScalar(warehouses))
	return &Worker{
		id: p.ID,
		generator: &generator{
			random:     rng,
			timestamps: timestamps,
			warehouses: warehouses,
		},
		executor:  p.Executor,
		pacer:     p.Pacer,
		dataClock: p.DataClock,
		queue:     p.Queue,
		clock:     p.Clock,
		lastFlush: p.Clock.Now(),
	}
}

// Run issues transactions until ctx is cancelled. Only unexpected database errors are returned.
func (w *Worker) Run(ctx *htapcontext.Context) error {
	ctx = htapcontext.WithLogField(ctx, "oltpWorker", w.id)
	ctx.Log.Debug("oltp worker started")
	defer w.flush()

	// In-flight transactions run to completion even when the run is cancelled.
	execCtx := htapcontext.Detached(ctx)
	for ctx.Err() == nil {
		if _, err := w.pacer.Wait(ctx); err != nil {
			break
		}
		tx := w.generator.next()
		sample, err := w.execute(execCtx, tx)
		if err != nil {
			return errors.WithMessagef(err, "%s failed on oltp worker %d", tx.txType, w.id)
		}
		w.pending = append(w.pending, sample)
		if w.clock.Since(w.lastFlush) >= flushInterval {
			w.flush()
		}
	}
	ctx.Log.Debug("oltp worker stopped")
	return nil
}

func (w *Worker) execute(ctx *htapcontext.Context, tx transaction) (events.TxSample, error) {
	start := w.clock.Now()
	committed := true
	var err error
	if tx.txType == events.NewOrder {
		committed, err = w.executor.CallBool(ctx, tx.sql, tx.args...)
	} else {
		err = w.executor.Exec(ctx, tx.sql, tx.args...)
	}
	end := w.clock.Now()

	sample := events.TxSample{
		Type:      tx.txType,
		Status:    events.TxOK,
		Runtime:   end.Sub(start),
		Timestamp: end,
	}
	switch {
	case dbexec.IsMissingRow(err):
		sample.Status = events.TxError
	case err != nil:
		return sample, err
	case !committed:
		sample.Status = events.TxError
	case !tx.timestamp.IsZero():
		w.dataClock.Advance(tx.timestamp)
	}
	return sample, nil
}

func (w *Worker) flush() {
	w.lastFlush = w.clock.Now()
	if len(w.pending) == 0 {
		return
	}
	w.queue.Put(events.TxSamples{WorkerID: w.id, Samples: w.pending})
	w.pending = nil
}
