package orchestrator

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	htapclock "github.com/armadaproject/htapbench/internal/htap/clock"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/maintenance"
	"github.com/armadaproject/htapbench/internal/htap/metrics"
	"github.com/armadaproject/htapbench/internal/htap/olap"
	"github.com/armadaproject/htapbench/internal/htap/oltp"
	"github.com/armadaproject/htapbench/internal/htap/reporting"
	"github.com/armadaproject/htapbench/internal/htap/stats"
)

// Longest the display and persistence wait for database statistics.
const snapshotTimeout = 5 * time.Second

// Controller runs one benchmark: it starts the workers, folds their events into statistics,
// refreshes the display, persists statistics and writes the final summary.
type Controller struct {
	env *Env

	runID     uuid.UUID
	executor  dbexec.Executor
	olapExecs []dbexec.Executor
	bootstrap Bootstrap
	dataClock *htapclock.DataClock
	catalog   *olap.Catalog
	engine    *stats.Engine
	sinks     reporting.Sinks
	plans     olap.PlanWriter
	exporter  *metrics.Exporter
	monitor   *reporting.Monitor

	stopMetrics func()
}

func NewController(env *Env) *Controller {
	return &Controller{env: env, runID: uuid.New()}
}

// Run blocks until the configured duration has elapsed, ctx is cancelled or a worker fails. The
// summary is written in every case once the workers have been set up, and a worker failure is
// returned.
func (c *Controller) Run(ctx *htapcontext.Context) error {
	ctx = htapcontext.WithLogField(ctx, "runId", c.runID.String())
	defer c.close(ctx)
	if err := c.setup(ctx); err != nil {
		return err
	}
	return c.run(ctx)
}

func (c *Controller) setup(ctx *htapcontext.Context) error {
	config := c.env.Config
	ctx.Log.Infof("Starting benchmark with %d OLTP and %d OLAP workers", config.OltpWorkers, config.OlapWorkers)

	// One connection per OLTP worker plus maintenance and statistics.
	executor, err := c.env.NewExecutor(ctx, config.Dsn, int32(config.OltpWorkers+2))
	if err != nil {
		return err
	}
	c.executor = executor

	if c.bootstrap, err = RunBootstrap(ctx, executor, config, c.env.Clock); err != nil {
		return err
	}
	c.dataClock = htapclock.NewDataClock(c.bootstrap.Min, c.bootstrap.Latest)
	ctx.Log.Infof("Found %d warehouses with data from %s to %s",
		c.bootstrap.Warehouses, c.bootstrap.Min.Format("2006-01-02"), c.bootstrap.Latest.Format("2006-01-02"))

	if c.catalog, err = olap.LoadCatalog(); err != nil {
		return err
	}
	for i := 0; i < config.OlapWorkers; i++ {
		olapExec, err := c.env.NewExecutor(ctx, config.OlapDsnFor(i), 1)
		if err != nil {
			return err
		}
		c.olapExecs = append(c.olapExecs, olapExec)
	}

	snapshots := stats.NewSnapshotSource(executor, config.DbStatsInterval, snapshotTimeout, c.env.Clock, ctx.Log)
	c.engine = stats.NewEngine(config.HistoryLength, snapshots, ctx.Log)

	csvSink, err := reporting.NewCSVSink(config.ResultsDir)
	if err != nil {
		return err
	}
	c.sinks = append(c.sinks, csvSink)
	if config.StatsDsn != "" && !config.DryRun {
		statsDB, err := reporting.OpenStatsDB(ctx, config.Postgres(config.StatsDsn, 2), c.runID)
		if err != nil {
			return err
		}
		c.sinks = append(c.sinks, statsDB)
	}
	if config.ExplainAnalyze {
		if c.plans, err = reporting.NewPlanSink(config.ResultsDir); err != nil {
			return err
		}
	}
	c.exporter = metrics.NewExporter()
	c.sinks = append(c.sinks, c.exporter)
	if config.MetricsPort > 0 {
		if c.stopMetrics, err = c.exporter.Serve(ctx, config.MetricsPort, ctx.Log); err != nil {
			return err
		}
	}

	c.monitor = reporting.NewMonitor(c.env.Out, reporting.MonitorConfig{
		OltpWorkers:    config.OltpWorkers,
		OlapWorkers:    config.OlapWorkers,
		Warehouses:     c.bootstrap.Warehouses,
		HistoryLength:  config.HistoryLength,
		RequiredWindow: config.RequiredWindow,
	}, c.bootstrap.Min)
	return nil
}

type workerFunc func(ctx *htapcontext.Context) error

func (c *Controller) workers() []workerFunc {
	config := c.env.Config
	var workers []workerFunc
	for i := 0; i < config.OltpWorkers; i++ {
		w := oltp.NewWorker(oltp.Params{
			ID:         i,
			Seed:       config.Seed + uint64(i),
			Warehouses: c.bootstrap.Warehouses,
			Executor:   c.executor,
			Pacer:      c.env.Pacer,
			DataClock:  c.dataClock,
			Queue:      c.env.Queue,
			Clock:      c.env.Clock,
		})
		workers = append(workers, w.Run)
	}
	ignored := config.IgnoredSet()
	for i := 0; i < config.OlapWorkers; i++ {
		w := olap.NewWorker(olap.Params{
			StreamID:       i,
			Catalog:        c.catalog,
			Executor:       c.olapExecs[i],
			DataClock:      c.dataClock,
			Queue:          c.env.Queue,
			Clock:          c.env.Clock,
			Ignored:        ignored,
			RequiredWindow: config.RequiredWindow,
			WaitForData:    !config.DontWaitForData,
			Timeout:        config.OlapTimeout,
			Explain:        config.ExplainAnalyze,
			Plans:          c.plans,
		})
		workers = append(workers, w.Run)
	}
	if !config.DryRun {
		w := maintenance.NewWorker(maintenance.Params{
			Executor: c.executor,
			Interval: config.Maintenance.Interval,
			Tables:   config.Maintenance.Tables,
			Clock:    c.env.Clock,
			Recorder: c.exporter,
		})
		workers = append(workers, w.Run)
	}
	return workers
}

func (c *Controller) run(ctx *htapcontext.Context) error {
	config := c.env.Config
	start := c.env.Clock.Now()
	deadline := start.Add(config.Duration)

	runCtx, cancelRun := htapcontext.WithCancel(ctx)
	defer cancelRun()
	if interval := c.env.Pacer.Interval(); interval > 0 {
		ctx.Log.Infof("Pacing transactions at one every %s", interval)
	}
	c.env.Pacer.Start(start)
	group, groupCtx := htapcontext.ErrGroup(runCtx)
	for _, w := range c.workers() {
		w := w
		group.Go(func() error { return w(groupCtx) })
	}
	groupDone := make(chan struct{})
	var groupErr error
	go func() {
		groupErr = group.Wait()
		close(groupDone)
	}()

	ticker := c.env.Clock.NewTicker(config.TickInterval())
	defer ticker.Stop()
	lastDisplay := start
	lastPersist := start

	var fault error
loop:
	for {
		select {
		case <-ctx.Done():
			ctx.Log.Info("Benchmark interrupted")
			break loop
		case <-groupDone:
			if ctx.Err() != nil {
				break loop
			}
			fault = groupErr
			if fault == nil {
				fault = errors.New("workers stopped before the end of the run")
			}
			break loop
		case <-ticker.C():
		}

		now := c.env.Clock.Now()
		c.drain(ctx, now)
		if now.Sub(lastDisplay) >= config.DisplayInterval {
			c.display(ctx, now.Sub(start))
			lastDisplay = now
		}
		if now.Sub(lastPersist) >= config.PersistInterval {
			c.persist(ctx, now)
			lastPersist = now
		}
		if !now.Before(deadline) {
			ctx.Log.Info("Benchmark duration reached")
			break loop
		}
	}

	cancelRun()
	<-groupDone
	if fault == nil && groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		fault = groupErr
	}

	now := c.env.Clock.Now()
	c.drain(ctx, now)
	c.persist(ctx, now)
	c.display(ctx, now.Sub(start))
	c.summarize(ctx, now, now.Sub(start))
	return fault
}

func (c *Controller) drain(ctx *htapcontext.Context, now time.Time) {
	evs := c.engine.Drain(c.env.Queue)
	c.engine.Cleanup(now)
	if err := c.sinks.RecordEvents(now, evs); err != nil {
		ctx.Log.WithError(err).Warn("failed to record events")
	}
}

func (c *Controller) display(ctx *htapcontext.Context, elapsed time.Duration) {
	err := c.monitor.Display(reporting.View{
		Elapsed:  elapsed,
		Latest:   c.dataClock.Latest(),
		Snapshot: c.engine.DBSnapshot(htapcontext.Detached(ctx)),
		Engine:   c.engine,
	})
	if err != nil {
		ctx.Log.WithError(err).Warn("failed to refresh display")
	}
}

func (c *Controller) persist(ctx *htapcontext.Context, now time.Time) {
	tick := reporting.NewTick(now, c.engine, c.engine.DBSnapshot(htapcontext.Detached(ctx)))
	if err := c.sinks.RecordTick(tick); err != nil {
		ctx.Log.WithError(err).Warn("failed to persist statistics")
	}
}

func (c *Controller) summarize(ctx *htapcontext.Context, now time.Time, elapsed time.Duration) {
	if _, err := io.WriteString(c.env.Out, c.monitor.Summary(elapsed, c.engine)); err != nil {
		ctx.Log.WithError(err).Warn("failed to print summary")
	}
	if err := reporting.WriteSummary(c.env.Config.ResultsDir, now, c.engine, c.env.Config.OlapWorkers); err != nil {
		ctx.Log.WithError(err).Error("failed to write summary")
	}
	ctx.Log.Infof("Results written to %s", c.env.Config.ResultsDir)
}

func (c *Controller) close(ctx *htapcontext.Context) {
	if c.stopMetrics != nil {
		c.stopMetrics()
	}
	if err := c.sinks.Close(); err != nil {
		ctx.Log.WithError(err).Warn("failed to close reporting sinks")
	}
	for _, e := range c.olapExecs {
		e.Close()
	}
	if c.executor != nil {
		c.executor.Close()
	}
}
