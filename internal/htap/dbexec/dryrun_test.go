package dbexec

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestDryRun_Execute(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	fakeClock := clocktesting.NewFakeClock(start)
	d := NewDryRun(fakeClock)

	results := make(chan Result)
	go func() {
		results <- d.Execute(context.Background(), "SELECT 1", nil, ExecOptions{Explain: true})
	}()
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(dryRunQueryDelay)

	result := <-results
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, time.Millisecond, result.Runtime())
	assert.NoError(t, result.Err)
}

func TestDryRun_ExecuteCancelled(t *testing.T) {
	d := NewDryRun(clocktesting.NewFakeClock(time.Now()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.Execute(ctx, "SELECT 1", nil, ExecOptions{})
	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestDryRun_Transactions(t *testing.T) {
	d := NewDryRun(clocktesting.NewFakeClock(time.Now()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := d.CallBool(ctx, "SELECT new_order()")
	assert.True(t, ok)
	assert.ErrorIs(t, err, context.Canceled)

	assert.ErrorIs(t, d.QueryRow(ctx, "SELECT 1").Scan(), pgx.ErrNoRows)

	size, err := d.DatabaseSize(ctx)
	assert.NoError(t, err)
	assert.Zero(t, size)

	stats, err := d.ColumnstoreStats(ctx)
	assert.NoError(t, err)
	assert.Empty(t, stats)
}
