package stats

import (
	"time"

	"github.com/armadaproject/htapbench/internal/htap/events"
)

// AllTypes selects every transaction type in OltpTotal.
const AllTypes events.TxType = -1

// Tuple summarises a per-second series over the statistics window.
type Tuple struct {
	Current int64
	Min     int64
	Avg     int64
	Max     int64
}

type Counters struct {
	Issued int64
	OK     int64
	Error  int64
}

type OltpTotals struct {
	Counters
	TPS     Tuple
	Latency Tuple
}

type typeCounters struct {
	ok    int64
	err   int64
	minMs int64
	maxMs int64
	sumMs int64
}

func (c *typeCounters) add(status events.TxStatus, ms int64) {
	if c.ok+c.err == 0 || ms < c.minMs {
		c.minMs = ms
	}
	if ms > c.maxMs {
		c.maxMs = ms
	}
	c.sumMs += ms
	if status == events.TxOK {
		c.ok++
	} else {
		c.err++
	}
}

func (c *typeCounters) merge(o typeCounters) {
	if o.ok+o.err == 0 {
		return
	}
	if c.ok+c.err == 0 || o.minMs < c.minMs {
		c.minMs = o.minMs
	}
	if o.maxMs > c.maxMs {
		c.maxMs = o.maxMs
	}
	c.sumMs += o.sumMs
	c.ok += o.ok
	c.err += o.err
}

func (c *typeCounters) samples() int64 {
	return c.ok + c.err
}

type bucket struct {
	second int64
	byType [events.NumTxTypes]typeCounters
}

func (b *bucket) filtered(filter events.TxType) typeCounters {
	if filter != AllTypes {
		return b.byType[filter]
	}
	var merged typeCounters
	for _, c := range b.byType {
		merged.merge(c)
	}
	return merged
}

// ring holds one bucket per second for a contiguous range of seconds.
type ring struct {
	buckets []bucket
	start   int
	size    int
}

func newRing(capacity int) *ring {
	return &ring{buckets: make([]bucket, capacity)}
}

func (r *ring) at(i int) *bucket {
	return &r.buckets[(r.start+i)%len(r.buckets)]
}

func (r *ring) oldest() int64 {
	return r.at(0).second
}

func (r *ring) newest() int64 {
	return r.at(r.size - 1).second
}

func (r *ring) push(second int64) {
	if r.size == len(r.buckets) {
		r.start = (r.start + 1) % len(r.buckets)
		r.size--
	}
	b := r.at(r.size)
	*b = bucket{second: second}
	r.size++
}

// advanceTo materialises every second up to and including second.
func (r *ring) advanceTo(second int64) {
	if r.size == 0 {
		r.push(second)
		return
	}
	next := r.newest() + 1
	if gap := second - next + 1; gap > int64(len(r.buckets)) {
		next = second - int64(len(r.buckets)) + 1
	}
	for s := next; s <= second; s++ {
		r.push(s)
	}
}

// bucketFor returns the bucket for second, or nil if second is older than the window.
func (r *ring) bucketFor(second int64) *bucket {
	if r.size == 0 || second > r.newest() {
		r.advanceTo(second)
	}
	if second < r.oldest() {
		return nil
	}
	return r.at(int(second - r.oldest()))
}

type oltpStats struct {
	window   *ring
	counters [events.NumTxTypes]Counters
}

func newOltpStats(historyLength int) *oltpStats {
	return &oltpStats{window: newRing(historyLength)}
}

func runtimeMs(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

// add records a sample and reports whether it fell inside the window.
func (s *oltpStats) add(sample events.TxSample) bool {
	if sample.Type < 0 || int(sample.Type) >= events.NumTxTypes {
		return false
	}
	c := &s.counters[sample.Type]
	c.Issued++
	if sample.Status == events.TxOK {
		c.OK++
	} else {
		c.Error++
	}
	b := s.window.bucketFor(sample.Timestamp.Unix())
	if b == nil {
		return false
	}
	b.byType[sample.Type].add(sample.Status, runtimeMs(sample.Runtime))
	return true
}

func (s *oltpStats) cleanup(now time.Time) {
	second := now.Unix()
	if s.window.size > 0 && second > s.window.newest() {
		s.window.advanceTo(second)
	}
}

func (s *oltpStats) total(filter events.TxType) OltpTotals {
	var totals OltpTotals
	if filter == AllTypes {
		for _, c := range s.counters {
			totals.Issued += c.Issued
			totals.OK += c.OK
			totals.Error += c.Error
		}
	} else if filter >= 0 && int(filter) < events.NumTxTypes {
		totals.Counters = s.counters[filter]
	} else {
		return totals
	}

	// The first and last buckets cover partial seconds.
	if s.window.size < 3 {
		return totals
	}
	qualifying := s.window.size - 2

	var merged typeCounters
	var tpsSum int64
	totals.TPS.Min = -1
	for i := 1; i <= qualifying; i++ {
		c := s.window.at(i).filtered(filter)
		if totals.TPS.Min < 0 || c.ok < totals.TPS.Min {
			totals.TPS.Min = c.ok
		}
		if c.ok > totals.TPS.Max {
			totals.TPS.Max = c.ok
		}
		tpsSum += c.ok
		merged.merge(c)
	}
	totals.TPS.Avg = tpsSum / int64(qualifying)

	current := s.window.at(s.window.size - 2).filtered(filter)
	totals.TPS.Current = current.ok
	if current.samples() > 0 {
		totals.Latency.Current = current.sumMs / current.samples()
	}
	if merged.samples() > 0 {
		totals.Latency.Min = merged.minMs
		totals.Latency.Max = merged.maxMs
		totals.Latency.Avg = merged.sumMs / merged.samples()
	}
	return totals
}
