package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/reporting"
)

const MetricPrefix = "htapbench_"

// Exporter publishes benchmark statistics as Prometheus metrics.
type Exporter struct {
	registry *prometheus.Registry

	oltpTransactions *prometheus.GaugeVec
	oltpTps          *prometheus.GaugeVec
	oltpLatency      *prometheus.GaugeVec
	olapQueries      *prometheus.CounterVec
	olapQueryRuntime *prometheus.HistogramVec
	streamIterations *prometheus.CounterVec
	dbSize           prometheus.Gauge
	columnstoreRatio *prometheus.GaugeVec
	columnstoreCache *prometheus.GaugeVec
	maintenanceRuns  *prometheus.CounterVec
}

func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Exporter{
		registry: registry,
		oltpTransactions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "oltp_transactions",
				Help: "Transactions completed since the start of the run",
			},
			[]string{"type", "status"},
		),
		oltpTps: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "oltp_tps",
				Help: "Successful transactions per second over the statistics window",
			},
			[]string{"type", "stat"},
		),
		oltpLatency: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "oltp_latency_milliseconds",
				Help: "Transaction latency over the statistics window",
			},
			[]string{"type", "stat"},
		),
		olapQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "olap_queries_total",
				Help: "Finished analytical queries",
			},
			[]string{"stream", "status"},
		),
		olapQueryRuntime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricPrefix + "olap_query_runtime_seconds",
				Help:    "Runtime of analytical queries",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 900},
			},
			[]string{"query", "status"},
		),
		streamIterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "olap_stream_iterations_total",
				Help: "Completed passes over a query stream",
			},
			[]string{"stream"},
		),
		dbSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "database_size_bytes",
				Help: "Size of the database under test",
			},
		),
		columnstoreRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "columnstore_compression_ratio",
				Help: "Heap size divided by columnstore size",
			},
			[]string{"table"},
		),
		columnstoreCache: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricPrefix + "columnstore_cached_percent",
				Help: "Share of the table held in the columnstore cache",
			},
			[]string{"table"},
		),
		maintenanceRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "maintenance_runs_total",
				Help: "VACUUM ANALYZE runs by table and result",
			},
			[]string{"table", "result"},
		),
	}
}

func (e *Exporter) RecordEvents(_ time.Time, evs []events.Event) error {
	for _, ev := range evs {
		switch ev := ev.(type) {
		case events.OlapEvent:
			if !ev.Status.Terminal() {
				continue
			}
			status := ev.Status.String()
			e.olapQueries.WithLabelValues(strconv.Itoa(ev.StreamID), status).Inc()
			e.olapQueryRuntime.WithLabelValues(strconv.Itoa(ev.QueryID), status).Observe(ev.Runtime.Seconds())
		case events.StreamIteration:
			e.streamIterations.WithLabelValues(strconv.Itoa(ev.StreamID)).Inc()
		}
	}
	return nil
}

func (e *Exporter) RecordTick(tick reporting.Tick) error {
	for _, r := range tick.Oltp {
		e.oltpTransactions.WithLabelValues(r.Name, "ok").Set(float64(r.OK))
		e.oltpTransactions.WithLabelValues(r.Name, "error").Set(float64(r.Error))
		setTuple(e.oltpTps, r.Name, r.TPS.Current, r.TPS.Min, r.TPS.Avg, r.TPS.Max)
		setTuple(e.oltpLatency, r.Name, r.Latency.Current, r.Latency.Min, r.Latency.Avg, r.Latency.Max)
	}
	e.dbSize.Set(float64(tick.Snapshot.SizeBytes))
	for _, c := range tick.Columnstore {
		e.columnstoreRatio.WithLabelValues(c.Table).Set(c.Ratio)
		e.columnstoreCache.WithLabelValues(c.Table).Set(c.CachedPercent)
	}
	return nil
}

func setTuple(vec *prometheus.GaugeVec, name string, current, min, avg, max int64) {
	vec.WithLabelValues(name, "current").Set(float64(current))
	vec.WithLabelValues(name, "min").Set(float64(min))
	vec.WithLabelValues(name, "avg").Set(float64(avg))
	vec.WithLabelValues(name, "max").Set(float64(max))
}

// RecordMaintenance counts one VACUUM ANALYZE run.
func (e *Exporter) RecordMaintenance(table string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.maintenanceRuns.WithLabelValues(table, result).Inc()
}

func (e *Exporter) Close() error {
	return nil
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx is cancelled. The listener is bound before Serve
// returns, so a port already in use is reported immediately.
func (e *Exporter) Serve(ctx context.Context, port uint16, log *logging.Logger) (func(), error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on metrics port %d", port)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("Serving metrics on port %d", port)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	var once sync.Once
	stopped := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(stopped)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("failed to stop metrics server cleanly")
			}
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-stopped:
		}
	}()
	return stop, nil
}
