package reporting

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/armadaproject/htapbench/internal/common/util"
	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/olap"
	"github.com/armadaproject/htapbench/internal/htap/stats"
)

// MonitorConfig describes the run being displayed.
type MonitorConfig struct {
	OltpWorkers    int
	OlapWorkers    int
	Warehouses     int
	HistoryLength  int
	RequiredWindow time.Duration
}

// View is the state shown on one refresh of the display.
type View struct {
	Elapsed  time.Duration
	Latest   time.Time
	Snapshot stats.DBSnapshot
	Engine   *stats.Engine
}

// Monitor redraws the live status display in place.
type Monitor struct {
	out     io.Writer
	config  MonitorConfig
	minDate time.Time
	printer *message.Printer
	// Lines printed by the previous refresh, to be overwritten by the next one.
	printed int
}

func NewMonitor(out io.Writer, config MonitorConfig, minDate time.Time) *Monitor {
	return &Monitor{
		out:     out,
		config:  config,
		minDate: minDate,
		printer: message.NewPrinter(language.English),
	}
}

// Display overwrites the previous refresh with the current view.
func (m *Monitor) Display(v View) error {
	text := m.Render(v)
	var sb strings.Builder
	sb.WriteString(strings.Repeat("\033[F", m.printed))
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for _, line := range lines {
		sb.WriteString("\033[2K")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	m.printed = len(lines)
	_, err := io.WriteString(m.out, sb.String())
	return err
}

// Render returns the display text for v.
func (m *Monitor) Render(v View) string {
	w := util.NewTabbedStringBuilder(1, 1, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	m.writeDataRange(w, v.Latest)
	w.Writef("DB size: %7.2fGB\n", float64(v.Snapshot.SizeBytes)/bytesPerGB)
	if rows := ColumnstoreRows(v.Snapshot.Columnstore); len(rows) > 0 {
		w.Write("\nTable size and S64 DA columnstore status\n")
		w.Row("table", "heap size", "colstore", "ratio", "cached")
		for _, r := range rows {
			w.Row(r.Table,
				fmt.Sprintf("%7.2fGB", r.HeapGB),
				fmt.Sprintf("%7.2fGB", r.ColumnstoreGB),
				fmt.Sprintf("%6.2fx", r.Ratio),
				fmt.Sprintf("%4.2f%%", r.CachedPercent))
		}
		w.Flush()
	}

	w.Write("\nOLTP workload status\n")
	m.writeOltp(w, v.Engine)

	if m.config.OlapWorkers > 0 {
		w.Write("\nOLAP workload status\n")
		m.writeOlap(w, v.Engine)
	}

	w.Writef("\n%s\n", elapsedText(v.Elapsed))
	return w.String()
}

func (m *Monitor) writeDataRange(w *util.TabbedStringBuilder, latest time.Time) {
	years, months, days := dateSpan(m.minDate, latest)
	warning := ""
	if latest.Sub(m.minDate) < m.config.RequiredWindow {
		warning = " (not enough for consistent OLAP queries)"
	}
	w.Writef("Data range: %s - %s = %d years, %d months and %d days%s\n",
		m.minDate.Format("2006-01-02"), latest.Format("2006-01-02"), years, months, days, warning)
}

func (m *Monitor) writeOltp(w *util.TabbedStringBuilder, engine *stats.Engine) {
	tpsHeader := fmt.Sprintf("TPS last %ds", m.config.HistoryLength)
	latencyHeader := fmt.Sprintf("LATENCY last %ds, ms", m.config.HistoryLength)
	w.Row("TYPE", "ISSUED", "COMPLETED", "ERRORS",
		tpsHeader, "", "", "",
		latencyHeader, "", "", "")
	w.Row("", "", "", "", "CURR", "MIN", "AVG", "MAX", "CURR", "MIN", "AVG", "MAX")
	for _, r := range OltpRows(engine) {
		w.Row(r.Name,
			m.printer.Sprintf("%d", r.Issued),
			m.printer.Sprintf("%d", r.OK),
			m.printer.Sprintf("%d", r.Error),
			r.TPS.Current, r.TPS.Min, r.TPS.Avg, r.TPS.Max,
			r.Latency.Current, r.Latency.Min, r.Latency.Avg, r.Latency.Max)
	}
	w.Flush()
}

func (m *Monitor) writeOlap(w *util.TabbedStringBuilder, engine *stats.Engine) {
	streams := make([]stats.StreamState, m.config.OlapWorkers)
	for i := range streams {
		if s, ok := engine.OlapStream(i); ok {
			streams[i] = s
		}
	}

	header := []any{"Stream"}
	for i := range streams {
		header = append(header, i+1)
	}
	w.Row(append(header, "#rows planned", "#rows processed")...)

	for queryID := 1; queryID <= olap.NumQueries; queryID++ {
		row := []any{fmt.Sprintf("Query %2d", queryID)}
		var maxPlanned, maxProcessed int64
		for _, s := range streams {
			q, ok := s.Queries[queryID]
			switch {
			case ok && q.Runtime > 0:
				maxPlanned = max64(maxPlanned, q.PlannedRows/1000)
				maxProcessed = max64(maxProcessed, q.ProcessedRows/1000)
				row = append(row, fmt.Sprintf("%7.2f %s", q.Runtime.Seconds(), shortStatus(q.Status)))
			case ok:
				row = append(row, q.Status.String())
			default:
				row = append(row, "")
			}
		}
		row = append(row, m.printer.Sprintf("%dK", maxPlanned), m.printer.Sprintf("%dK", maxProcessed))
		w.Row(row...)
	}

	total := []any{"Total"}
	for _, s := range streams {
		var sum time.Duration
		for _, q := range s.Queries {
			sum += q.Runtime
		}
		total = append(total, fmt.Sprintf("%9.2f", sum.Seconds()))
	}
	w.Row(append(total, "", "")...)
	w.Flush()
}

// Summary is printed once the run has finished.
func (m *Monitor) Summary(elapsed time.Duration, engine *stats.Engine) string {
	w := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	w.Write("\nSummary\n-------\n")
	w.Writef("Warehouses: %d\n", m.config.Warehouses)
	w.Writef("Workers: %d OLTP, %d OLAP\n", m.config.OltpWorkers, m.config.OlapWorkers)
	seconds := elapsed.Seconds()
	if seconds < 1 {
		seconds = 1
	}
	w.Writef("Total time: %.2f seconds\n", seconds)

	w.Write("\nOLTP\n")
	w.Row("", "Average transactions per second", "Average latency (ms)")
	rows := OltpRows(engine)
	// All types first.
	rows = append(rows[len(rows)-1:], rows[:len(rows)-1]...)
	for _, r := range rows {
		w.Row(r.Name, m.printer.Sprintf("%d", r.TPS.Avg), m.printer.Sprintf("%d", r.Latency.Avg))
	}
	w.Flush()

	w.Write("\nOLAP\n")
	streamTotals := engine.StreamTotals()
	avgRuntime := "-"
	if streamTotals.Completed > 0 {
		avgRuntime = m.printer.Sprintf("%d", streamTotals.AvgRuntime.Milliseconds())
	}
	totals := engine.OlapTotals()
	w.Row("Average stream runtime (ms)", avgRuntime)
	w.Row("Completed stream iterations", streamTotals.Completed)
	w.Row("Successful queries", totals.OK)
	w.Row("Queries with errors", totals.Error)
	w.Row("Query timeouts", totals.Timeout)
	return w.String()
}

func elapsedText(elapsed time.Duration) string {
	seconds := elapsed.Seconds()
	unit := "seconds"
	if seconds < 2 {
		unit = "second"
	}
	return fmt.Sprintf("Elapsed: %.0f %s", seconds, unit)
}

func shortStatus(s events.OlapStatus) string {
	name := strings.ToUpper(s.String())
	if len(name) > 3 {
		name = name[:3]
	}
	return name
}

// dateSpan splits the calendar distance between two dates into years, months and days. Adding
// months clips to the end of shorter months.
func dateSpan(from, to time.Time) (years, months, days int) {
	from = midnight(from)
	to = midnight(to)
	if to.Before(from) {
		return 0, 0, 0
	}
	total := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	anchor := addMonths(from, total)
	if anchor.After(to) {
		total--
		anchor = addMonths(from, total)
	}
	days = int(to.Sub(anchor) / (24 * time.Hour))
	return total / 12, total % 12, days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
