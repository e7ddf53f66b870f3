// Package random provides the seeded draws used to build transaction parameters.
package random

import (
	"time"

	"golang.org/x/exp/rand"
)

const (
	DistPerWarehouse     = 10
	CustomersPerDistrict = 3000
	MaxItems             = 100000
	// Orders per district the loader generates timestamps for.
	NumOrders = 30000
)

var (
	// DataRangeStart and DataRangeEnd bound the dates of the generated history.
	DataRangeStart = time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC)
	DataRangeEnd   = time.Date(1998, 12, 31, 0, 0, 0, 0, time.UTC)
)

var names = [10]string{"BAR", "OUGHT", "ABLE", "PRI", "PRES", "ESE", "ANTI", "CALLY", "ATION", "EING"}

// Random is a seeded generator. It is not safe for concurrent use; each worker owns one.
type Random struct {
	rng   *rand.Rand
	c255  int
	c1023 int
	c8191 int
}

func New(seed uint64) *Random {
	rng := rand.New(rand.NewSource(seed))
	return &Random{
		rng:   rng,
		c255:  rng.Intn(256),
		c1023: rng.Intn(1024),
		c8191: rng.Intn(8192),
	}
}

// IntInclusive draws uniformly from [low, high].
func (r *Random) IntInclusive(low, high int) int {
	if high <= low {
		return low
	}
	return low + r.rng.Intn(high-low+1)
}

// NURand is the non-uniform draw of the order-entry workload: a handful of keys in [x, y] are
// picked far more often than the rest. a must be one of 255, 1023 or 8191.
func (r *Random) NURand(a, x, y int) int {
	var c int
	switch a {
	case 255:
		c = r.c255
	case 1023:
		c = r.c1023
	case 8191:
		c = r.c8191
	default:
		panic("unsupported NURand constant")
	}
	return (((r.IntInclusive(0, a) | r.IntInclusive(x, y)) + c) % (y - x + 1)) + x
}

// Gaussian draws from a normal distribution.
func (r *Random) Gaussian(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// Decision returns true with probability frac.
func (r *Random) Decision(frac float64) bool {
	return r.rng.Float64() < frac
}

// Lastname builds a customer last name from a number in [0, 999].
func Lastname(num int) string {
	return names[num/100] + names[(num/10)%10] + names[num%10]
}

// OtherWarehouse picks a warehouse different from home, or home itself if it is the only one.
func (r *Random) OtherWarehouse(home, warehouses int) int {
	if warehouses <= 1 {
		return home
	}
	for {
		w := r.IntInclusive(1, warehouses)
		if w != home {
			return w
		}
	}
}
