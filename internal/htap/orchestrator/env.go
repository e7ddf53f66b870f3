// Package orchestrator wires the workers, the statistics engine and the reporting sinks into one
// benchmark run.
package orchestrator

import (
	"context"
	"io"

	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/common/logging"
	htapclock "github.com/armadaproject/htapbench/internal/htap/clock"
	"github.com/armadaproject/htapbench/internal/htap/configuration"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

// ExecutorFactory opens an executor for dsn holding at most maxConns connections.
type ExecutorFactory func(ctx context.Context, dsn string, maxConns int32) (dbexec.Executor, error)

// Env is everything shared by the components of a run.
type Env struct {
	Config      configuration.HtapConfig
	Clock       clock.WithTicker
	Pacer       *htapclock.Pacer
	Queue       *events.Queue
	NewExecutor ExecutorFactory
	Log         *logging.Logger
	// Terminal receiving the live display and the final summary.
	Out io.Writer
}

// NewEnv builds the environment for config on the wall clock. Dry runs never touch a database.
func NewEnv(config configuration.HtapConfig, log *logging.Logger, out io.Writer) *Env {
	c := clock.RealClock{}
	return &Env{
		Config:      config,
		Clock:       c,
		Pacer:       htapclock.NewPacer(htapclock.IntervalFor(config.TargetTps), c),
		Queue:       events.NewQueue(),
		NewExecutor: executorFactory(config, c),
		Log:         log,
		Out:         out,
	}
}

func executorFactory(config configuration.HtapConfig, c clock.Clock) ExecutorFactory {
	if config.DryRun {
		return func(context.Context, string, int32) (dbexec.Executor, error) {
			return dbexec.NewDryRun(c), nil
		}
	}
	return func(ctx context.Context, dsn string, maxConns int32) (dbexec.Executor, error) {
		return dbexec.OpenPostgres(ctx, config.Postgres(dsn, maxConns))
	}
}
