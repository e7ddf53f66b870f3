package olap

import (
	"time"

	"github.com/armadaproject/htapbench/internal/htap/random"
)

const sqlTimestampFormat = "2006-01-02 15:04:05"

type queryDates struct {
	date      time.Time
	beginDate time.Time
	endDate   time.Time
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Reference dates of each query within the TPC-H 1992-1998 data range.
var canonicalDates = map[int]queryDates{
	1:  {date: day(1998, 9, 22)},
	3:  {date: day(1995, 3, 7)},
	4:  {beginDate: day(1994, 1, 1), endDate: day(1994, 4, 1)},
	5:  {beginDate: day(1993, 1, 1), endDate: day(1994, 1, 1)},
	6:  {beginDate: day(1993, 1, 1), endDate: day(1994, 1, 1)},
	7:  {beginDate: day(1995, 1, 1), endDate: day(1996, 12, 31)},
	8:  {beginDate: day(1995, 1, 1), endDate: day(1996, 12, 31)},
	10: {beginDate: day(1993, 7, 1), endDate: day(1993, 10, 1)},
	12: {beginDate: day(1996, 1, 1), endDate: day(1997, 1, 1)},
	14: {beginDate: day(1996, 1, 1), endDate: day(1996, 2, 1)},
	15: {beginDate: day(1995, 10, 1), endDate: day(1996, 1, 1)},
	20: {beginDate: day(1994, 1, 1), endDate: day(1995, 4, 1)},
}

// MapDate maps a date of the TPC-H data range linearly onto the window [min, latest].
// The source position is taken at second resolution, which keeps the arithmetic exact in int64.
func MapDate(d, min, latest time.Time) time.Time {
	source := int64(random.DataRangeEnd.Sub(random.DataRangeStart) / time.Second)
	position := int64(d.Sub(random.DataRangeStart) / time.Second)
	window := int64(latest.Sub(min))
	offset := window/source*position + window%source*position/source
	return min.Add(time.Duration(offset))
}

// ParamsFor builds the template parameters of a query for the window [min, latest].
func ParamsFor(queryID, streamID int, min, latest time.Time) TemplateParams {
	format := func(d time.Time) string {
		if d.IsZero() {
			return ""
		}
		return MapDate(d, min, latest).UTC().Format(sqlTimestampFormat)
	}
	dates := canonicalDates[queryID]
	return TemplateParams{
		StreamID:  streamID,
		Date:      format(dates.date),
		BeginDate: format(dates.beginDate),
		EndDate:   format(dates.endDate),
		MinDate:   format(random.DataRangeStart),
	}
}
