package random

import "time"

// TimestampGenerator produces business timestamps that advance at the rate the loader spread
// orders over the data range.
type TimestampGenerator struct {
	random    *Random
	current   time.Time
	increment float64
}

// NewTimestampGenerator starts at start. scalar scales the per-order increment, which is
// (DataRangeEnd - DataRangeStart) / (NumOrders * DistPerWarehouse).
func NewTimestampGenerator(start time.Time, random *Random, scalar float64) *TimestampGenerator {
	perWarehouse := float64(NumOrders * DistPerWarehouse)
	return &TimestampGenerator{
		random:    random,
		current:   start,
		increment: float64(DataRangeEnd.Sub(DataRangeStart)) / perWarehouse * scalar,
	}
}

// TransactionScalar is the increment scale for a worker issuing the full transaction mix against
// warehouses warehouses. Only 10 of every 23 transactions create an order.
func TransactionScalar(warehouses int) float64 {
	if warehouses < 1 {
		warehouses = 1
	}
	return (10.0 / 23.0) / float64(warehouses)
}

func (g *TimestampGenerator) Next() time.Time {
	step := g.increment * g.random.Gaussian(1, 0.05)
	if step < 0 {
		step = 0
	}
	g.current = g.current.Add(time.Duration(step))
	return g.current
}
