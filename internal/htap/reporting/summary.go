package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/olap"
	"github.com/armadaproject/htapbench/internal/htap/stats"
)

const summaryHeader = ";stream_id;query_id;timestamp_start;timestamp_stop;runtime;status;correctness_check"

// WriteSummary writes summary.csv into dir. Transactions are reported on stream 0, OLAP streams
// follow on stream id + 1.
func WriteSummary(dir string, now time.Time, engine *stats.Engine, olapStreams int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	path := filepath.Join(dir, "summary.csv")
	if err := os.WriteFile(path, []byte(RenderSummary(now, engine, olapStreams)), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// RenderSummary returns the contents of summary.csv.
func RenderSummary(now time.Time, engine *stats.Engine, olapStreams int) string {
	var sb strings.Builder
	sb.WriteString(summaryHeader)
	sb.WriteString("\n")
	ts := now.Format(csvTimeFormat)
	row := 0
	line := func(streamID int, queryID string, runtime string, status string) {
		fmt.Fprintf(&sb, "%d;%d;%s;%s;%s;%s;%s;%s\n", row, streamID, queryID, ts, ts, runtime, status, status)
		row++
	}

	for _, txType := range events.TxTypes {
		totals := engine.OltpTotal(txType)
		line(0, txType.String()+"_total", itoa(totals.OK+totals.Error), "OK")
		line(0, txType.String()+"_tps", itoa(totals.TPS.Avg), "OK")
		line(0, txType.String()+"_latency", itoa(totals.Latency.Avg), "OK")
	}

	// Every stream reports every query. One that never reached a terminal state had no time to run.
	for streamID := 0; streamID < olapStreams; streamID++ {
		stream, _ := engine.OlapStream(streamID)
		for queryID := 1; queryID <= olap.NumQueries; queryID++ {
			q := stream.Queries[queryID]
			line(streamID+1, fmt.Sprint(queryID), seconds(q.Runtime), strings.ToUpper(q.SummaryStatus().String()))
		}
	}
	return sb.String()
}
