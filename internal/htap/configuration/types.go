package configuration

import (
	"time"

	"github.com/armadaproject/htapbench/internal/common/database"
)

const (
	// NumQueries is the number of analytical queries in the benchmark.
	NumQueries = 22
	// DefaultRequiredWindow is seven years of simulated history.
	DefaultRequiredWindow = 7 * 365 * 24 * time.Hour
)

type HtapConfig struct {
	// Workload database.
	Dsn string `yaml:"dsn" validate:"required"`
	// Optional databases for OLAP streams; stream i uses OlapDsns[i % len(OlapDsns)].
	OlapDsns []string `yaml:"olapDsns" validate:"dive,required"`
	// Optional database receiving the periodic statistics rows.
	StatsDsn string `yaml:"statsDsn"`

	OltpWorkers int `yaml:"oltpWorkers" validate:"gte=0"`
	OlapWorkers int `yaml:"olapWorkers" validate:"gte=0"`
	// Combined OLTP admission rate across all workers; 0 means unlimited.
	TargetTps float64 `yaml:"targetTps" validate:"gte=0"`

	Duration        time.Duration `yaml:"duration"`
	OlapTimeout     time.Duration `yaml:"olapTimeout"`
	DisplayInterval time.Duration `yaml:"displayInterval"`
	PersistInterval time.Duration `yaml:"persistInterval"`
	DbStatsInterval time.Duration `yaml:"dbStatsInterval"`

	// Number of one-second buckets kept for rolling OLTP statistics.
	HistoryLength int `yaml:"historyLength" validate:"gte=3"`
	// Simulated history OLAP queries wait for before running.
	RequiredWindow  time.Duration `yaml:"requiredWindow"`
	DontWaitForData bool          `yaml:"dontWaitForData"`
	IgnoredQueries  []int         `yaml:"ignoredQueries"`
	ExplainAnalyze  bool          `yaml:"explainAnalyze"`
	DryRun          bool          `yaml:"dryRun"`

	// Base seed; each worker derives its own seed from it.
	Seed       uint64 `yaml:"seed"`
	ResultsDir string `yaml:"resultsDir" validate:"required"`
	// Port for the Prometheus endpoint; 0 disables it.
	MetricsPort uint16 `yaml:"metricsPort"`

	ConnectRetries    uint          `yaml:"connectRetries"`
	ConnectRetryDelay time.Duration `yaml:"connectRetryDelay"`

	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type MaintenanceConfig struct {
	// Interval between VACUUM ANALYZE rounds; 0 disables maintenance.
	Interval time.Duration `yaml:"interval"`
	Tables   []string      `yaml:"tables" validate:"dive,required"`
}

// IgnoredSet returns the ignored query ids as a set.
func (c HtapConfig) IgnoredSet() map[int]bool {
	set := make(map[int]bool, len(c.IgnoredQueries))
	for _, id := range c.IgnoredQueries {
		set[id] = true
	}
	return set
}

// OlapDsnFor returns the connection string OLAP stream streamID should use.
func (c HtapConfig) OlapDsnFor(streamID int) string {
	if len(c.OlapDsns) == 0 {
		return c.Dsn
	}
	return c.OlapDsns[streamID%len(c.OlapDsns)]
}

// Postgres returns the connection settings for dsn with the configured retry policy.
func (c HtapConfig) Postgres(dsn string, maxConns int32) database.PostgresConfig {
	return database.PostgresConfig{
		Dsn:            dsn,
		MaxConns:       maxConns,
		ConnectRetries: c.ConnectRetries,
		RetryDelay:     c.ConnectRetryDelay,
	}
}

// TickInterval is the controller loop cadence.
func (c HtapConfig) TickInterval() time.Duration {
	if c.DisplayInterval < c.PersistInterval {
		return c.DisplayInterval
	}
	return c.PersistInterval
}
