// Package reporting renders benchmark statistics to the terminal and persists them to CSV files,
// an optional statistics database and query plan files.
package reporting

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/stats"
)

const allTypesName = "All types"

const bytesPerGB = 1024 * 1024 * 1024

// OltpRow is the rolling summary of one transaction type, or of all of them.
type OltpRow struct {
	Name string
	stats.OltpTotals
}

// ColumnstoreRow is the size and cache state of one columnstore indexed table. Sizes are in GB.
type ColumnstoreRow struct {
	Table         string
	HeapGB        float64
	ColumnstoreGB float64
	Ratio         float64
	CachedPercent float64
}

// Tick is everything persisted on one persistence interval.
type Tick struct {
	Time        time.Time
	Oltp        []OltpRow
	Snapshot    stats.DBSnapshot
	Columnstore []ColumnstoreRow
}

// NewTick collects the current statistics of the engine.
func NewTick(now time.Time, engine *stats.Engine, snapshot stats.DBSnapshot) Tick {
	return Tick{
		Time:        now,
		Oltp:        OltpRows(engine),
		Snapshot:    snapshot,
		Columnstore: ColumnstoreRows(snapshot.Columnstore),
	}
}

// OltpRows returns one row per transaction type followed by the row for all types.
func OltpRows(engine *stats.Engine) []OltpRow {
	rows := make([]OltpRow, 0, events.NumTxTypes+1)
	for _, txType := range events.TxTypes {
		rows = append(rows, OltpRow{Name: txType.String(), OltpTotals: engine.OltpTotal(txType)})
	}
	return append(rows, OltpRow{Name: allTypesName, OltpTotals: engine.OltpTotal(stats.AllTypes)})
}

// ColumnstoreRows converts block counts into sizes. Sizes below 1GB are reported as 1GB.
func ColumnstoreRows(columnstore []dbexec.ColumnstoreStat) []ColumnstoreRow {
	rows := make([]ColumnstoreRow, 0, len(columnstore))
	for _, c := range columnstore {
		heap := blocksToGB(c.RelationBlocks)
		index := blocksToGB(c.CompressedBlocks)
		relationBlocks := c.RelationBlocks
		if relationBlocks < 1 {
			relationBlocks = 1
		}
		rows = append(rows, ColumnstoreRow{
			Table:         c.TableName,
			HeapGB:        heap,
			ColumnstoreGB: index,
			Ratio:         heap / index,
			CachedPercent: float64(c.CachePagesUsable) / float64(relationBlocks) * 100,
		})
	}
	return rows
}

func blocksToGB(blocks int64) float64 {
	gb := float64(blocks) * 8 / 1024 / 1024
	if gb < 1 {
		return 1
	}
	return gb
}

// Sink receives statistics as the benchmark runs.
type Sink interface {
	// RecordEvents is called with every batch of events drained from the workers.
	RecordEvents(now time.Time, evs []events.Event) error
	// RecordTick is called once per persistence interval.
	RecordTick(tick Tick) error
	Close() error
}

// Sinks fans out to every sink, continuing past failures.
type Sinks []Sink

func (s Sinks) RecordEvents(now time.Time, evs []events.Event) error {
	var result *multierror.Error
	for _, sink := range s {
		if err := sink.RecordEvents(now, evs); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (s Sinks) RecordTick(tick Tick) error {
	var result *multierror.Error
	for _, sink := range s {
		if err := sink.RecordTick(tick); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (s Sinks) Close() error {
	var result *multierror.Error
	for _, sink := range s {
		if err := sink.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
