package reporting

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/common/util"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

const csvTimeFormat = "2006-01-02 15:04:05.000000"

var (
	oltpHeader = []string{
		"time", "type", "issued", "ok", "error",
		"tps_current", "tps_min", "tps_avg", "tps_max",
		"latency_current", "latency_min", "latency_avg", "latency_max",
	}
	olapHeader       = []string{"time", "stream", "iteration", "query", "status", "runtime"}
	olapStreamHeader = []string{"time", "stream", "iteration", "runtime"}
	dbStatsHeader    = []string{"time", "table", "heap_gb", "columnstore_gb", "ratio", "cached_percent"}
)

type csvFile struct {
	file   *os.File
	writer *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c := &csvFile{file: f, writer: csv.NewWriter(f)}
	if err := c.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

func (c *csvFile) write(rows ...[]string) error {
	if err := c.writer.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s", c.file.Name())
	}
	return nil
}

func (c *csvFile) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(c.file.Close())
}

// CSVSink appends statistics to oltp.csv, olap.csv, olap_stream.csv and dbstats.csv.
type CSVSink struct {
	oltp       *csvFile
	olap       *csvFile
	olapStream *csvFile
	dbStats    *csvFile
}

// NewCSVSink creates the results directory and truncates any previous results in it.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	sink := &CSVSink{}
	var err error
	if sink.oltp, err = createCSV(filepath.Join(dir, "oltp.csv"), oltpHeader); err != nil {
		return nil, err
	}
	if sink.olap, err = createCSV(filepath.Join(dir, "olap.csv"), olapHeader); err != nil {
		_ = sink.Close()
		return nil, err
	}
	if sink.olapStream, err = createCSV(filepath.Join(dir, "olap_stream.csv"), olapStreamHeader); err != nil {
		_ = sink.Close()
		return nil, err
	}
	if sink.dbStats, err = createCSV(filepath.Join(dir, "dbstats.csv"), dbStatsHeader); err != nil {
		_ = sink.Close()
		return nil, err
	}
	return sink, nil
}

// RecordEvents appends finished queries and completed stream iterations.
func (s *CSVSink) RecordEvents(now time.Time, evs []events.Event) error {
	var olapRows, streamRows [][]string
	ts := now.Format(csvTimeFormat)
	for _, ev := range evs {
		switch ev := ev.(type) {
		case events.OlapEvent:
			if !ev.Status.Terminal() {
				continue
			}
			olapRows = append(olapRows, []string{
				ts, strconv.Itoa(ev.StreamID), strconv.Itoa(ev.Iteration), strconv.Itoa(ev.QueryID),
				ev.Status.String(), seconds(ev.Runtime),
			})
		case events.StreamIteration:
			streamRows = append(streamRows, []string{
				ts, strconv.Itoa(ev.StreamID), strconv.Itoa(ev.Iteration), seconds(ev.Runtime),
			})
		}
	}
	if err := s.olap.write(olapRows...); err != nil {
		return err
	}
	return s.olapStream.write(streamRows...)
}

func (s *CSVSink) RecordTick(tick Tick) error {
	ts := tick.Time.Format(csvTimeFormat)
	oltpRows := make([][]string, 0, len(tick.Oltp))
	for _, r := range tick.Oltp {
		oltpRows = append(oltpRows, []string{
			ts, r.Name,
			itoa(r.Issued), itoa(r.OK), itoa(r.Error),
			itoa(r.TPS.Current), itoa(r.TPS.Min), itoa(r.TPS.Avg), itoa(r.TPS.Max),
			itoa(r.Latency.Current), itoa(r.Latency.Min), itoa(r.Latency.Avg), itoa(r.Latency.Max),
		})
	}
	if err := s.oltp.write(oltpRows...); err != nil {
		return err
	}
	dbRows := make([][]string, 0, len(tick.Columnstore))
	for _, r := range tick.Columnstore {
		dbRows = append(dbRows, []string{
			ts, r.Table, ftoa(r.HeapGB), ftoa(r.ColumnstoreGB), ftoa(r.Ratio), ftoa(r.CachedPercent),
		})
	}
	return s.dbStats.write(dbRows...)
}

func (s *CSVSink) Close() error {
	var closers []io.Closer
	for _, c := range []*csvFile{s.oltp, s.olap, s.olapStream, s.dbStats} {
		if c != nil {
			closers = append(closers, c)
		}
	}
	return util.CloseAll(closers...)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func seconds(d time.Duration) string {
	return ftoa(d.Seconds())
}
