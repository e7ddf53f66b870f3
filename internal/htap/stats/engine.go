// Package stats reduces worker completion events into rolling statistics.
//
// The engine is owned by the controller loop and is not safe for concurrent use.
package stats

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

type Engine struct {
	oltp      *oltpStats
	olap      *olapStats
	snapshots *SnapshotSource
	log       *logging.Logger

	// Late samples dropped since the last warning.
	dropped     int64
	warnLimiter *rate.Limiter
}

// NewEngine creates an engine keeping historyLength seconds of transaction statistics.
// snapshots may be nil, in which case DBSnapshot is always empty.
func NewEngine(historyLength int, snapshots *SnapshotSource, log *logging.Logger) *Engine {
	return &Engine{
		oltp:        newOltpStats(historyLength),
		olap:        newOlapStats(),
		snapshots:   snapshots,
		log:         log,
		warnLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Drain applies everything currently queued and returns the applied events.
func (e *Engine) Drain(q *events.Queue) []events.Event {
	drained := q.Drain()
	for _, ev := range drained {
		e.Apply(ev)
	}
	return drained
}

func (e *Engine) Apply(ev events.Event) {
	switch ev := ev.(type) {
	case events.TxSamples:
		for _, sample := range ev.Samples {
			if !e.oltp.add(sample) {
				e.dropped++
			}
		}
		e.warnDropped()
	case events.OlapEvent:
		e.olap.addQuery(ev)
	case events.StreamIteration:
		e.olap.addIteration(ev)
	default:
		e.log.Warnf("ignoring unknown event %T", ev)
	}
}

func (e *Engine) warnDropped() {
	if e.dropped == 0 || !e.warnLimiter.Allow() {
		return
	}
	e.log.WithField("dropped", e.dropped).Warn("dropped transaction samples older than the statistics window")
	e.dropped = 0
}

// Cleanup slides the statistics window forward to now so that idle seconds count as empty.
func (e *Engine) Cleanup(now time.Time) {
	e.oltp.cleanup(now)
}

// OltpTotal summarises one transaction type, or all of them when filter is AllTypes.
func (e *Engine) OltpTotal(filter events.TxType) OltpTotals {
	return e.oltp.total(filter)
}

// OlapStream returns a copy of the state of a stream.
func (e *Engine) OlapStream(id int) (StreamState, bool) {
	return e.olap.snapshot(id)
}

// OlapStreamIDs lists the streams that have reported at least one event.
func (e *Engine) OlapStreamIDs() []int {
	return e.olap.ids()
}

func (e *Engine) OlapTotals() OlapTotals {
	return e.olap.totals()
}

func (e *Engine) StreamTotals() StreamTotals {
	return e.olap.streamTotals()
}

func (e *Engine) DBSnapshot(ctx context.Context) DBSnapshot {
	if e.snapshots == nil {
		return DBSnapshot{}
	}
	return e.snapshots.Get(ctx)
}
