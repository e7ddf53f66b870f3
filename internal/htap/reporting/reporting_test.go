package reporting

import (
	"time"

	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/stats"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *stats.Engine {
	e := stats.NewEngine(10, nil, logging.FromLogrus(logging.NullLogger))
	e.Apply(events.TxSamples{WorkerID: 0, Samples: []events.TxSample{
		{Type: events.StockLevel, Status: events.TxOK, Runtime: 10 * time.Millisecond, Timestamp: testNow.Add(-time.Second)},
		{Type: events.NewOrder, Status: events.TxOK, Runtime: 100 * time.Millisecond, Timestamp: testNow},
		{Type: events.NewOrder, Status: events.TxError, Runtime: 100 * time.Millisecond, Timestamp: testNow},
		{Type: events.Payment, Status: events.TxOK, Runtime: 50 * time.Millisecond, Timestamp: testNow},
	}})
	// Close the second holding the samples so that it is reported.
	e.Cleanup(testNow.Add(time.Second))
	e.Apply(events.OlapEvent{StreamID: 0, QueryID: 1, Status: events.OK, Runtime: 2 * time.Second, PlannedRows: 5000, ProcessedRows: 7000})
	e.Apply(events.OlapEvent{StreamID: 0, QueryID: 2, Status: events.Running})
	e.Apply(events.OlapEvent{StreamID: 0, QueryID: 1, Status: events.Running})
	e.Apply(events.OlapEvent{StreamID: 1, QueryID: 3, Status: events.Waiting})
	return e
}

func testSnapshot() stats.DBSnapshot {
	return stats.DBSnapshot{
		SizeBytes: 3 * bytesPerGB,
		Columnstore: []dbexec.ColumnstoreStat{
			{TableName: "order_line", RelationBlocks: 4 * 131072, CompressedBlocks: 2 * 131072, CachePagesUsable: 131072},
		},
		Timestamp: testNow,
	}
}
