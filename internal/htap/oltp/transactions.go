package oltp

import (
	"time"

	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/random"
)

const (
	newOrderSql    = "SELECT new_order($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	paymentSql     = "SELECT payment($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	orderStatusSql = "SELECT * FROM order_status($1, $2, $3, $4, $5)"
	deliverySql    = "SELECT * FROM delivery($1, $2, $3, $4)"
	stockLevelSql  = "SELECT * FROM stock_level($1, $2, $3)"
)

// Draws out of 23: 10 new orders, 10 payments and one of each of the rest.
const mixSize = 23

// Item id the new-order procedure treats as missing, forcing a rollback.
const unusedItem = -1

type transaction struct {
	txType events.TxType
	sql    string
	args   []any
	// Business time written by the transaction, zero for read-only ones.
	timestamp time.Time
}

type generator struct {
	random     *random.Random
	timestamps *random.TimestampGenerator
	warehouses int
}

func (g *generator) next() transaction {
	// Every transaction consumes a timestamp so the data clock advances at the loader's rate.
	ts := g.timestamps.Next()
	switch draw := g.random.IntInclusive(1, mixSize); {
	case draw <= 10:
		return g.newOrder(ts)
	case draw <= 20:
		return g.payment(ts)
	case draw == 21:
		return g.orderStatus()
	case draw == 22:
		return g.delivery(ts)
	default:
		return g.stockLevel()
	}
}

func (g *generator) warehouse() int {
	return g.random.IntInclusive(1, g.warehouses)
}

func (g *generator) district() int {
	return g.random.IntInclusive(1, random.DistPerWarehouse)
}

func (g *generator) customer() int {
	return g.random.NURand(1023, 1, random.CustomersPerDistrict)
}

func (g *generator) lastname() string {
	return random.Lastname(g.random.NURand(255, 0, 999))
}

func (g *generator) newOrder(ts time.Time) transaction {
	wID := g.warehouse()
	dID := g.district()
	cID := g.customer()
	lines := g.random.IntInclusive(5, 15)
	rollback := g.random.IntInclusive(1, 100) == 1

	itemIDs := make([]int32, lines)
	supplyWarehouses := make([]int32, lines)
	quantities := make([]int32, lines)
	allLocal := 1
	for i := 0; i < lines; i++ {
		itemIDs[i] = int32(g.random.NURand(8191, 1, random.MaxItems))
		if rollback && i == lines-2 {
			itemIDs[i] = unusedItem
		}
		if g.random.IntInclusive(1, 100) != 1 {
			supplyWarehouses[i] = int32(wID)
		} else {
			supplyWarehouses[i] = int32(g.random.OtherWarehouse(wID, g.warehouses))
			allLocal = 0
		}
		quantities[i] = int32(g.random.IntInclusive(1, 10))
	}

	return transaction{
		txType:    events.NewOrder,
		sql:       newOrderSql,
		args:      []any{wID, cID, dID, lines, allLocal, itemIDs, supplyWarehouses, quantities, ts},
		timestamp: ts,
	}
}

func (g *generator) payment(ts time.Time) transaction {
	wID := g.warehouse()
	dID := g.district()
	cID := g.customer()
	amount := g.random.IntInclusive(1, 5000)
	lastname := g.lastname()
	byName := g.random.Decision(0.6)

	cWID, cDID := wID, dID
	if g.random.Decision(0.15) {
		cWID = g.random.OtherWarehouse(wID, g.warehouses)
		cDID = g.district()
	}

	return transaction{
		txType:    events.Payment,
		sql:       paymentSql,
		args:      []any{wID, dID, cDID, cID, cWID, amount, byName, lastname, ts},
		timestamp: ts,
	}
}

func (g *generator) orderStatus() transaction {
	wID := g.warehouse()
	dID := g.district()
	cID := g.customer()
	lastname := g.lastname()
	byName := g.random.Decision(0.6)
	return transaction{
		txType: events.OrderStatus,
		sql:    orderStatusSql,
		args:   []any{wID, dID, cID, lastname, byName},
	}
}

func (g *generator) delivery(ts time.Time) transaction {
	wID := g.warehouse()
	carrier := g.random.IntInclusive(1, 10)
	return transaction{
		txType:    events.Delivery,
		sql:       deliverySql,
		args:      []any{wID, carrier, random.DistPerWarehouse, ts},
		timestamp: ts,
	}
}

func (g *generator) stockLevel() transaction {
	wID := g.warehouse()
	dID := g.district()
	threshold := g.random.IntInclusive(10, 20)
	return transaction{
		txType: events.StockLevel,
		sql:    stockLevelSql,
		args:   []any{wID, dID, threshold},
	}
}
