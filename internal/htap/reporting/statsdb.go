package reporting

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/armadaproject/htapbench/internal/common/database"
	"github.com/armadaproject/htapbench/internal/htap/events"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS oltp_stats (
    run_id          uuid        NOT NULL,
    ts              timestamptz NOT NULL,
    type            text        NOT NULL,
    issued          bigint      NOT NULL,
    ok              bigint      NOT NULL,
    error           bigint      NOT NULL,
    tps_current     bigint      NOT NULL,
    tps_min         bigint      NOT NULL,
    tps_avg         bigint      NOT NULL,
    tps_max         bigint      NOT NULL,
    latency_current bigint      NOT NULL,
    latency_min     bigint      NOT NULL,
    latency_avg     bigint      NOT NULL,
    latency_max     bigint      NOT NULL
);
CREATE TABLE IF NOT EXISTS olap_stats (
    run_id    uuid             NOT NULL,
    ts        timestamptz      NOT NULL,
    stream    integer          NOT NULL,
    iteration integer          NOT NULL,
    query     integer          NOT NULL,
    status    text             NOT NULL,
    runtime   double precision NOT NULL
);
CREATE TABLE IF NOT EXISTS olap_stream_stats (
    run_id    uuid             NOT NULL,
    ts        timestamptz      NOT NULL,
    stream    integer          NOT NULL,
    iteration integer          NOT NULL,
    runtime   double precision NOT NULL
);
CREATE TABLE IF NOT EXISTS db_stats (
    run_id         uuid             NOT NULL,
    ts             timestamptz      NOT NULL,
    table_name     text             NOT NULL,
    heap_gb        double precision NOT NULL,
    columnstore_gb double precision NOT NULL,
    ratio          double precision NOT NULL,
    cached_percent double precision NOT NULL
);
`

var (
	oltpStatsTable       = goqu.T("oltp_stats")
	olapStatsTable       = goqu.T("olap_stats")
	olapStreamStatsTable = goqu.T("olap_stream_stats")
	dbStatsTable         = goqu.T("db_stats")
)

type oltpStatRecord struct {
	RunID          string    `db:"run_id"`
	Timestamp      time.Time `db:"ts"`
	Type           string    `db:"type"`
	Issued         int64     `db:"issued"`
	OK             int64     `db:"ok"`
	Error          int64     `db:"error"`
	TpsCurrent     int64     `db:"tps_current"`
	TpsMin         int64     `db:"tps_min"`
	TpsAvg         int64     `db:"tps_avg"`
	TpsMax         int64     `db:"tps_max"`
	LatencyCurrent int64     `db:"latency_current"`
	LatencyMin     int64     `db:"latency_min"`
	LatencyAvg     int64     `db:"latency_avg"`
	LatencyMax     int64     `db:"latency_max"`
}

type olapStatRecord struct {
	RunID     string    `db:"run_id"`
	Timestamp time.Time `db:"ts"`
	Stream    int       `db:"stream"`
	Iteration int       `db:"iteration"`
	Query     int       `db:"query"`
	Status    string    `db:"status"`
	Runtime   float64   `db:"runtime"`
}

type olapStreamStatRecord struct {
	RunID     string    `db:"run_id"`
	Timestamp time.Time `db:"ts"`
	Stream    int       `db:"stream"`
	Iteration int       `db:"iteration"`
	Runtime   float64   `db:"runtime"`
}

type dbStatRecord struct {
	RunID         string    `db:"run_id"`
	Timestamp     time.Time `db:"ts"`
	TableName     string    `db:"table_name"`
	HeapGB        float64   `db:"heap_gb"`
	ColumnstoreGB float64   `db:"columnstore_gb"`
	Ratio         float64   `db:"ratio"`
	CachedPercent float64   `db:"cached_percent"`
}

// StatsDB writes the same rows as CSVSink into a postgres database, tagged with the run id.
type StatsDB struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	runID   uuid.UUID
	timeout time.Duration
}

// OpenStatsDB connects to the statistics database and creates the statistics tables if they are
// missing.
func OpenStatsDB(ctx context.Context, config database.PostgresConfig, runID uuid.UUID) (*StatsDB, error) {
	db, err := database.OpenSqlDb(ctx, config)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, statsSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create statistics tables")
	}
	return newStatsDB(db, runID), nil
}

func newStatsDB(db *sql.DB, runID uuid.UUID) *StatsDB {
	return &StatsDB{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		runID:   runID,
		timeout: 10 * time.Second,
	}
}

func (s *StatsDB) RecordEvents(now time.Time, evs []events.Event) error {
	var olapRows []any
	var streamRows []any
	for _, ev := range evs {
		switch ev := ev.(type) {
		case events.OlapEvent:
			if !ev.Status.Terminal() {
				continue
			}
			olapRows = append(olapRows, olapStatRecord{
				RunID:     s.runID.String(),
				Timestamp: now,
				Stream:    ev.StreamID,
				Iteration: ev.Iteration,
				Query:     ev.QueryID,
				Status:    ev.Status.String(),
				Runtime:   ev.Runtime.Seconds(),
			})
		case events.StreamIteration:
			streamRows = append(streamRows, olapStreamStatRecord{
				RunID:     s.runID.String(),
				Timestamp: now,
				Stream:    ev.StreamID,
				Iteration: ev.Iteration,
				Runtime:   ev.Runtime.Seconds(),
			})
		}
	}
	if err := s.insert(olapStatsTable, olapRows); err != nil {
		return err
	}
	return s.insert(olapStreamStatsTable, streamRows)
}

func (s *StatsDB) RecordTick(tick Tick) error {
	if err := s.insert(oltpStatsTable, s.oltpRecords(tick)); err != nil {
		return err
	}
	return s.insert(dbStatsTable, s.dbRecords(tick))
}

func (s *StatsDB) oltpRecords(tick Tick) []any {
	rows := make([]any, 0, len(tick.Oltp))
	for _, r := range tick.Oltp {
		rows = append(rows, oltpStatRecord{
			RunID:          s.runID.String(),
			Timestamp:      tick.Time,
			Type:           r.Name,
			Issued:         r.Issued,
			OK:             r.OK,
			Error:          r.Error,
			TpsCurrent:     r.TPS.Current,
			TpsMin:         r.TPS.Min,
			TpsAvg:         r.TPS.Avg,
			TpsMax:         r.TPS.Max,
			LatencyCurrent: r.Latency.Current,
			LatencyMin:     r.Latency.Min,
			LatencyAvg:     r.Latency.Avg,
			LatencyMax:     r.Latency.Max,
		})
	}
	return rows
}

func (s *StatsDB) dbRecords(tick Tick) []any {
	rows := make([]any, 0, len(tick.Columnstore))
	for _, r := range tick.Columnstore {
		rows = append(rows, dbStatRecord{
			RunID:         s.runID.String(),
			Timestamp:     tick.Time,
			TableName:     r.Table,
			HeapGB:        r.HeapGB,
			ColumnstoreGB: r.ColumnstoreGB,
			Ratio:         r.Ratio,
			CachedPercent: r.CachedPercent,
		})
	}
	return rows
}

func (s *StatsDB) insertSql(table any, rows []any) (string, []any, error) {
	return s.dialect.Insert(table).Prepared(true).Rows(rows...).ToSQL()
}

func (s *StatsDB) insert(table any, rows []any) error {
	if len(rows) == 0 {
		return nil
	}
	query, args, err := s.insertSql(table, rows)
	if err != nil {
		return errors.WithStack(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to write statistics")
	}
	return nil
}

func (s *StatsDB) Close() error {
	return errors.WithStack(s.db.Close())
}
