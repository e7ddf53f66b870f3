package reporting

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/htapbench/internal/htap/events"
)

var testRunID = uuid.MustParse("8a0b7c0e-4b1e-4f7e-9a52-0c2f1e3d4b5a")

// schemaColumns returns the columns statsSchema declares for table.
func schemaColumns(t *testing.T, table string) []string {
	start := strings.Index(statsSchema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	require.GreaterOrEqual(t, start, 0, "table %s missing from schema", table)
	body := statsSchema[start:]
	body = body[strings.Index(body, "(")+1 : strings.Index(body, ");")]
	var columns []string
	for _, line := range strings.Split(body, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			columns = append(columns, fields[0])
		}
	}
	return columns
}

// insertColumns returns the column list of a generated INSERT statement.
func insertColumns(t *testing.T, sql string) []string {
	open, closing := strings.Index(sql, "("), strings.Index(sql, ")")
	require.True(t, open >= 0 && closing > open, sql)
	var columns []string
	for _, c := range strings.Split(sql[open+1:closing], ",") {
		columns = append(columns, strings.Trim(strings.TrimSpace(c), `"`))
	}
	return columns
}

func TestStatsDB_InsertsMatchSchema(t *testing.T) {
	s := newStatsDB(nil, testRunID)
	tick := NewTick(testNow, testEngine(), testSnapshot())
	olapRows := []any{olapStatRecord{RunID: testRunID.String(), Timestamp: testNow, Stream: 1, Iteration: 2, Query: 4, Status: "OK", Runtime: 1.5}}
	streamRows := []any{olapStreamStatRecord{RunID: testRunID.String(), Timestamp: testNow, Stream: 1, Iteration: 2, Runtime: 30}}

	tests := map[string]struct {
		table any
		name  string
		rows  []any
	}{
		"oltp":        {table: oltpStatsTable, name: "oltp_stats", rows: s.oltpRecords(tick)},
		"db":          {table: dbStatsTable, name: "db_stats", rows: s.dbRecords(tick)},
		"olap":        {table: olapStatsTable, name: "olap_stats", rows: olapRows},
		"olap stream": {table: olapStreamStatsTable, name: "olap_stream_stats", rows: streamRows},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, tc.rows)
			sql, args, err := s.insertSql(tc.table, tc.rows)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(sql, `INSERT INTO "`+tc.name+`" (`), sql)
			columns := insertColumns(t, sql)
			assert.ElementsMatch(t, schemaColumns(t, tc.name), columns)
			assert.Len(t, args, len(columns)*len(tc.rows))
			assert.Contains(t, args, testRunID.String())
		})
	}
}

func TestStatsDB_OltpRecords(t *testing.T) {
	s := newStatsDB(nil, testRunID)
	rows := s.oltpRecords(NewTick(testNow, testEngine(), testSnapshot()))

	require.Len(t, rows, len(events.TxTypes)+1)
	all := rows[len(rows)-1].(oltpStatRecord)
	assert.Equal(t, allTypesName, all.Type)
	assert.Equal(t, int64(4), all.Issued)
	assert.Equal(t, testNow, all.Timestamp)
	assert.Equal(t, testRunID.String(), all.RunID)
}

func TestStatsDB_NothingToWrite(t *testing.T) {
	// A nil database fails the test if anything is written.
	s := newStatsDB(nil, testRunID)
	assert.NoError(t, s.RecordEvents(testNow, []events.Event{
		events.OlapEvent{StreamID: 0, QueryID: 1, Status: events.Running},
	}))
	assert.NoError(t, s.RecordTick(Tick{Time: testNow}))
}
