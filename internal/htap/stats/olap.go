package stats

import (
	"sort"
	"time"

	"github.com/armadaproject/htapbench/internal/htap/events"
)

// QueryState is the latest known state of one query in one stream.
type QueryState struct {
	Status        events.OlapStatus
	LastStatus    events.OlapStatus
	HasLast       bool
	Runtime       time.Duration
	PlannedRows   int64
	ProcessedRows int64
	Iteration     int
	Timestamp     time.Time
}

// SummaryStatus is the status a query is reported with once the run is over. A query caught
// between runs reports its previous outcome, and anything unfinished counts as a timeout.
func (q QueryState) SummaryStatus() events.OlapStatus {
	status := q.Status
	if status == events.Running && q.HasLast {
		status = q.LastStatus
	}
	if !status.Terminal() {
		return events.Timeout
	}
	return status
}

type StreamCounters struct {
	OK      int64
	Error   int64
	Timeout int64
	Ignored int64
}

type StreamState struct {
	StreamID   int
	Queries    map[int]QueryState
	Counters   StreamCounters
	Iterations int
	// Sum of the wall time of all completed passes.
	IterationRuntime time.Duration
}

type OlapTotals struct {
	OK      int64
	Error   int64
	Timeout int64
}

type StreamTotals struct {
	AvgRuntime time.Duration
	Completed  int64
}

type olapStats struct {
	streams map[int]*StreamState
}

func newOlapStats() *olapStats {
	return &olapStats{streams: map[int]*StreamState{}}
}

func (s *olapStats) stream(id int) *StreamState {
	stream, ok := s.streams[id]
	if !ok {
		stream = &StreamState{StreamID: id, Queries: map[int]QueryState{}}
		s.streams[id] = stream
	}
	return stream
}

func (s *olapStats) addQuery(ev events.OlapEvent) {
	stream := s.stream(ev.StreamID)
	previous, seen := stream.Queries[ev.QueryID]

	if !ev.Status.Terminal() {
		if ev.Status == events.Ignored {
			stream.Counters.Ignored++
		}
		state := previous
		// LastStatus only ever holds a terminal status.
		if seen && previous.Status.Terminal() {
			state.LastStatus = previous.Status
			state.HasLast = true
		}
		state.Status = ev.Status
		state.Iteration = ev.Iteration
		state.Timestamp = ev.Timestamp
		stream.Queries[ev.QueryID] = state
		return
	}

	switch ev.Status {
	case events.OK:
		stream.Counters.OK++
	case events.Error:
		stream.Counters.Error++
	case events.Timeout:
		stream.Counters.Timeout++
	}
	stream.Queries[ev.QueryID] = QueryState{
		Status:        ev.Status,
		Runtime:       ev.Runtime,
		PlannedRows:   ev.PlannedRows,
		ProcessedRows: ev.ProcessedRows,
		Iteration:     ev.Iteration,
		Timestamp:     ev.Timestamp,
	}
}

func (s *olapStats) addIteration(ev events.StreamIteration) {
	stream := s.stream(ev.StreamID)
	stream.Iterations++
	stream.IterationRuntime += ev.Runtime
}

func (s *olapStats) snapshot(id int) (StreamState, bool) {
	stream, ok := s.streams[id]
	if !ok {
		return StreamState{}, false
	}
	copied := *stream
	copied.Queries = make(map[int]QueryState, len(stream.Queries))
	for k, v := range stream.Queries {
		copied.Queries[k] = v
	}
	return copied, true
}

func (s *olapStats) ids() []int {
	ids := make([]int, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *olapStats) totals() OlapTotals {
	var totals OlapTotals
	for _, stream := range s.streams {
		totals.OK += stream.Counters.OK
		totals.Error += stream.Counters.Error
		totals.Timeout += stream.Counters.Timeout
	}
	return totals
}

func (s *olapStats) streamTotals() StreamTotals {
	var totals StreamTotals
	var runtime time.Duration
	for _, stream := range s.streams {
		totals.Completed += int64(stream.Iterations)
		runtime += stream.IterationRuntime
	}
	if totals.Completed > 0 {
		totals.AvgRuntime = runtime / time.Duration(totals.Completed)
	}
	return totals
}
