package olap

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/htapbench/internal/htap/random"
)

func TestLoadCatalog_StreamsArePermutations(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	require.Greater(t, catalog.NumStreams(), 0)

	expected := make([]int, NumQueries)
	for i := range expected {
		expected[i] = i + 1
	}
	for i := 0; i < catalog.NumStreams(); i++ {
		stream := append([]int(nil), catalog.Stream(i)...)
		sort.Ints(stream)
		assert.Equal(t, expected, stream, "stream %d", i)
	}
	assert.Equal(t, catalog.Stream(0), catalog.Stream(catalog.NumStreams()))
	assert.Equal(t, 14, catalog.Stream(0)[0])
}

func TestCatalog_RenderAllQueries(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	min := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := 1; id <= NumQueries; id++ {
		sql, err := catalog.Render(id, ParamsFor(id, 3, min, latest))
		require.NoError(t, err, "query %d", id)
		assert.NotContains(t, sql, "{{", "query %d", id)
		assert.NotContains(t, sql, "''", "query %d has an empty date", id)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(sql), "SELECT") || strings.HasPrefix(sql, "WITH"), "query %d", id)
	}

	q15, err := catalog.Render(15, ParamsFor(15, 3, min, latest))
	require.NoError(t, err)
	assert.Contains(t, q15, "revenue3")
}

func TestCatalog_RenderUnknownQuery(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	_, err = catalog.Render(23, TemplateParams{})
	assert.Error(t, err)
}

func TestMapDate_EndPoints(t *testing.T) {
	windows := []struct{ min, latest time.Time }{
		{time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2020, 5, 5, 12, 0, 0, 0, time.UTC), time.Date(2020, 5, 5, 12, 0, 0, 0, time.UTC)},
		{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, w := range windows {
		assert.True(t, w.min.Equal(MapDate(random.DataRangeStart, w.min, w.latest)))
		assert.True(t, w.latest.Equal(MapDate(random.DataRangeEnd, w.min, w.latest)))
	}
}

func TestMapDate_Monotonic(t *testing.T) {
	min := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	previous := MapDate(random.DataRangeStart, min, latest)
	for d := random.DataRangeStart.AddDate(0, 0, 7); d.Before(random.DataRangeEnd); d = d.AddDate(0, 0, 7) {
		mapped := MapDate(d, min, latest)
		require.True(t, mapped.After(previous), "%s", d)
		previous = mapped
	}
}

func TestParamsFor(t *testing.T) {
	min := random.DataRangeStart
	latest := random.DataRangeEnd

	// An identity window leaves the canonical dates unchanged.
	q1 := ParamsFor(1, 0, min, latest)
	assert.Equal(t, "1998-09-22 00:00:00", q1.Date)
	assert.Equal(t, "1992-01-01 00:00:00", q1.MinDate)
	assert.Empty(t, q1.BeginDate)

	q4 := ParamsFor(4, 2, min, latest)
	assert.Equal(t, "1994-01-01 00:00:00", q4.BeginDate)
	assert.Equal(t, "1994-04-01 00:00:00", q4.EndDate)
	assert.Equal(t, 2, q4.StreamID)

	q2 := ParamsFor(2, 0, min, latest)
	assert.Empty(t, q2.Date)
	assert.NotEmpty(t, q2.MinDate)
}
