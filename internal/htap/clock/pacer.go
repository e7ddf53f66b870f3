package clock

import (
	"context"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// Pacer hands out evenly spaced admission slots to any number of concurrent callers.
type Pacer struct {
	next     int64
	interval time.Duration
	clock    clock.Clock
}

// NewPacer creates a pacer whose first slot is the current time. An interval of zero disables pacing.
func NewPacer(interval time.Duration, c clock.Clock) *Pacer {
	return &Pacer{
		next:     c.Now().UnixNano(),
		interval: interval,
		clock:    c,
	}
}

// IntervalFor returns the slot interval that admits targetTps transactions per second in total.
// Every worker draws from the same slot counter, so the interval is not divided by the worker count.
func IntervalFor(targetTps float64) time.Duration {
	if targetTps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / targetTps)
}

// Start moves the first slot to now. Slots reserved earlier are forgotten, so time spent before
// the workers exist is never paid back as a burst.
func (p *Pacer) Start(now time.Time) {
	atomic.StoreInt64(&p.next, now.UnixNano())
}

func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Reserve claims the next slot.
func (p *Pacer) Reserve() time.Time {
	if p.interval == 0 {
		return p.clock.Now()
	}
	slot := atomic.AddInt64(&p.next, int64(p.interval)) - int64(p.interval)
	return time.Unix(0, slot)
}

// Wait reserves a slot and blocks until it is due. A slot already in the past returns immediately.
func (p *Pacer) Wait(ctx context.Context) (time.Time, error) {
	slot := p.Reserve()
	if p.interval == 0 {
		return slot, nil
	}
	delay := slot.Sub(p.clock.Now())
	if delay <= 0 {
		return slot, nil
	}
	timer := p.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return slot, ctx.Err()
	case <-timer.C():
		return slot, nil
	}
}
