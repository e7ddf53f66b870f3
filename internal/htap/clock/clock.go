// Package clock tracks the simulated data time written by the transactional workers and paces
// transaction admission against wall-clock time.
package clock

import (
	"sync/atomic"
	"time"
)

// DataClock holds the bounds of the simulated data window. The upper bound only ever moves forward;
// the lower bound is fixed at bootstrap.
type DataClock struct {
	min    int64
	latest int64
}

func NewDataClock(min, latest time.Time) *DataClock {
	return &DataClock{
		min:    min.UnixNano(),
		latest: latest.UnixNano(),
	}
}

// Advance moves the latest data timestamp to ts if ts is newer.
func (c *DataClock) Advance(ts time.Time) {
	n := ts.UnixNano()
	for {
		current := atomic.LoadInt64(&c.latest)
		if n <= current {
			return
		}
		if atomic.CompareAndSwapInt64(&c.latest, current, n) {
			return
		}
	}
}

func (c *DataClock) Latest() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.latest)).UTC()
}

func (c *DataClock) Min() time.Time {
	return time.Unix(0, c.min).UTC()
}

// Span is the amount of simulated history currently available.
func (c *DataClock) Span() time.Duration {
	return time.Duration(atomic.LoadInt64(&c.latest) - c.min)
}
