package maintenance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/dbexec/dbexectest"
)

type recorder struct {
	mu   sync.Mutex
	runs map[string][]error
}

func (r *recorder) RecordMaintenance(table string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = map[string][]error{}
	}
	r.runs[table] = append(r.runs[table], err)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, runs := range r.runs {
		n += len(runs)
	}
	return n
}

func testContext() (*htapcontext.Context, context.CancelFunc) {
	return htapcontext.WithCancel(htapcontext.New(context.Background(), logging.FromLogrus(logging.NullLogger)))
}

func TestWorker_VacuumsEveryTablePerInterval(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(time.Unix(0, 0))
	executor := &dbexectest.Fake{
		OnExec: func(sql string, _ []any) error {
			if sql == `VACUUM ANALYZE "orders"` {
				return errors.New("lock timeout")
			}
			return nil
		},
	}
	rec := &recorder{}
	w := NewWorker(Params{
		Executor: executor,
		Interval: time.Minute,
		Tables:   []string{"new_orders", "orders"},
		Clock:    fakeClock,
		Recorder: rec,
	})

	ctx, cancel := testContext()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	assert.Empty(t, executor.Calls())

	fakeClock.Step(time.Minute)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)

	fakeClock.Step(time.Minute)
	require.Eventually(t, func() bool { return rec.count() == 4 }, time.Second, time.Millisecond)

	cancel()
	// A failing table does not stop the worker.
	require.NoError(t, <-done)

	calls := executor.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, `VACUUM ANALYZE "new_orders"`, calls[0].Sql)
	assert.Equal(t, `VACUUM ANALYZE "orders"`, calls[1].Sql)
	assert.NoError(t, rec.runs["new_orders"][0])
	assert.Error(t, rec.runs["orders"][0])
}

func TestWorker_DisabledReturnsImmediately(t *testing.T) {
	tests := map[string]Params{
		"zero interval": {Interval: 0, Tables: []string{"orders"}},
		"no tables":     {Interval: time.Minute},
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			executor := &dbexectest.Fake{}
			p.Executor = executor
			p.Clock = clocktesting.NewFakeClock(time.Unix(0, 0))
			ctx, cancel := testContext()
			defer cancel()
			assert.NoError(t, NewWorker(p).Run(ctx))
			assert.Empty(t, executor.Calls())
		})
	}
}
