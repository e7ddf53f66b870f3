package olap

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	"github.com/armadaproject/htapbench/internal/common/logging"
	htapclock "github.com/armadaproject/htapbench/internal/htap/clock"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/dbexec/dbexectest"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

var now = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func testContext() *htapcontext.Context {
	return htapcontext.New(context.Background(), logging.FromLogrus(logging.NullLogger))
}

func testParams(t *testing.T, executor dbexec.Executor, c clock.Clock) Params {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	return Params{
		StreamID:       0,
		Catalog:        catalog,
		Executor:       executor,
		DataClock:      htapclock.NewDataClock(now.Add(-time.Hour), now),
		Queue:          events.NewQueue(),
		Clock:          c,
		Ignored:        map[int]bool{},
		RequiredWindow: time.Hour,
		WaitForData:    true,
		Timeout:        time.Minute,
	}
}

func olapEvents(q *events.Queue) ([]events.OlapEvent, []events.StreamIteration) {
	var queries []events.OlapEvent
	var iterations []events.StreamIteration
	for _, ev := range q.Drain() {
		switch ev := ev.(type) {
		case events.OlapEvent:
			queries = append(queries, ev)
		case events.StreamIteration:
			iterations = append(iterations, ev)
		}
	}
	return queries, iterations
}

func TestWorker_FreshnessGate(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(now)
	executor := &dbexectest.Fake{}
	params := testParams(t, executor, fakeClock)
	params.DataClock = htapclock.NewDataClock(now, now)
	w := NewWorker(params)

	ctx, cancel := htapcontext.WithCancel(testContext())
	defer cancel()
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
		fakeClock.Step(freshnessPollInterval)
	}
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	assert.Empty(t, executor.Calls())

	queries, _ := olapEvents(params.Queue)
	require.GreaterOrEqual(t, len(queries), 3)
	for _, ev := range queries {
		assert.Equal(t, events.Waiting, ev.Status)
		assert.Equal(t, 14, ev.QueryID)
	}

	params.DataClock.Advance(now.Add(time.Hour))
	fakeClock.Step(freshnessPollInterval)
	require.Eventually(t, func() bool { return len(executor.Calls()) > 0 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	queries, _ = olapEvents(params.Queue)
	require.GreaterOrEqual(t, len(queries), 2)
	assert.Equal(t, events.Running, queries[0].Status)
	assert.Equal(t, events.OK, queries[1].Status)
}

func TestWorker_IgnoredQueriesSkipDatabase(t *testing.T) {
	var executed int64
	ctx, cancel := htapcontext.WithCancel(testContext())
	defer cancel()
	executor := &dbexectest.Fake{
		OnExecute: func(string, dbexec.ExecOptions) dbexec.Result {
			if atomic.AddInt64(&executed, 1) == NumQueries-2 {
				cancel()
			}
			return dbexec.Result{Status: dbexec.StatusOK}
		},
	}
	params := testParams(t, executor, clock.RealClock{})
	params.Ignored = map[int]bool{14: true, 2: true}
	require.NoError(t, NewWorker(params).Run(ctx))

	queries, iterations := olapEvents(params.Queue)
	ignored := map[int]int{}
	for _, ev := range queries {
		if ev.Status == events.Ignored {
			ignored[ev.QueryID]++
		}
		assert.NotEqual(t, events.Waiting, ev.Status)
	}
	assert.Equal(t, map[int]int{14: 1, 2: 1}, ignored)
	assert.Len(t, executor.Calls(), NumQueries-2)
	require.Len(t, iterations, 1)
	assert.Equal(t, 1, iterations[0].Iteration)
}

func TestWorker_StatusMapping(t *testing.T) {
	ctx, cancel := htapcontext.WithCancel(testContext())
	defer cancel()
	var calls int64
	executor := &dbexectest.Fake{
		OnExecute: func(string, dbexec.ExecOptions) dbexec.Result {
			start := now
			switch atomic.AddInt64(&calls, 1) {
			case 1:
				return dbexec.Result{
					Status: dbexec.StatusOK, Start: start, Stop: start.Add(2 * time.Second),
					Plan:     &dbexec.PlanNode{EstimatedRows: 10, ActualRows: 7, Children: []*dbexec.PlanNode{{EstimatedRows: 5, ActualRows: 3}}},
					PlanText: "[]",
				}
			case 2:
				return dbexec.Result{Status: dbexec.StatusTimeout, Start: start, Stop: start.Add(time.Minute)}
			default:
				cancel()
				return dbexec.Result{Status: dbexec.StatusError, Start: start, Stop: start.Add(time.Second), Err: errors.New("syntax error")}
			}
		},
	}
	plans := &recordingPlans{}
	params := testParams(t, executor, clock.RealClock{})
	params.WaitForData = false
	params.Explain = true
	params.Plans = plans
	require.NoError(t, NewWorker(params).Run(ctx))

	var terminal []events.OlapEvent
	queries, _ := olapEvents(params.Queue)
	for _, ev := range queries {
		if ev.Status.Terminal() {
			terminal = append(terminal, ev)
		}
	}
	require.Len(t, terminal, 3)
	assert.Equal(t, events.OK, terminal[0].Status)
	assert.Equal(t, 2*time.Second, terminal[0].Runtime)
	assert.Equal(t, int64(15), terminal[0].PlannedRows)
	assert.Equal(t, int64(10), terminal[0].ProcessedRows)
	assert.Equal(t, events.Timeout, terminal[1].Status)
	assert.Equal(t, events.Error, terminal[2].Status)
	assert.Equal(t, []string{"0_14"}, plans.written)

	for _, call := range executor.Calls() {
		assert.NotContains(t, call.Sql, "{{")
	}
}

func TestWorker_DryRun(t *testing.T) {
	ctx, cancel := htapcontext.WithTimeout(testContext(), 200*time.Millisecond)
	defer cancel()
	params := testParams(t, dbexec.NewDryRun(clock.RealClock{}), clock.RealClock{})
	params.WaitForData = false
	require.NoError(t, NewWorker(params).Run(ctx))

	queries, _ := olapEvents(params.Queue)
	require.NotEmpty(t, queries)
	for _, ev := range queries {
		if ev.Status == events.OK {
			assert.Equal(t, time.Millisecond, ev.Runtime)
		}
	}
}

type recordingPlans struct {
	written []string
}

func (r *recordingPlans) WritePlan(streamID, queryID int, _ string) error {
	r.written = append(r.written, fmt.Sprintf("%d_%d", streamID, queryID))
	return nil
}
