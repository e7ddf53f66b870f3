package oltp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/htapbench/internal/htap/events"
	"github.com/armadaproject/htapbench/internal/htap/random"
)

var start = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

func testGenerator(seed uint64, warehouses int) *generator {
	rng := random.New(seed)
	return &generator{
		random:     rng,
		timestamps: random.NewTimestampGenerator(start, rng, random.TransactionScalar(warehouses)),
		warehouses: warehouses,
	}
}

func TestGenerator_Mix(t *testing.T) {
	g := testGenerator(1, 4)
	counts := map[events.TxType]int{}
	const draws = 23000
	for i := 0; i < draws; i++ {
		counts[g.next().txType]++
	}
	assert.InDelta(t, 10000, counts[events.NewOrder], 500)
	assert.InDelta(t, 10000, counts[events.Payment], 500)
	assert.InDelta(t, 1000, counts[events.OrderStatus], 200)
	assert.InDelta(t, 1000, counts[events.Delivery], 200)
	assert.InDelta(t, 1000, counts[events.StockLevel], 200)
}

func TestGenerator_NewOrder(t *testing.T) {
	g := testGenerator(2, 3)
	rollbacks := 0
	remote := 0
	for i := 0; i < 2000; i++ {
		tx := g.newOrder(start)
		require.Equal(t, newOrderSql, tx.sql)
		require.Len(t, tx.args, 9)

		wID := tx.args[0].(int)
		lines := tx.args[3].(int)
		allLocal := tx.args[4].(int)
		items := tx.args[5].([]int32)
		supply := tx.args[6].([]int32)
		quantities := tx.args[7].([]int32)

		require.GreaterOrEqual(t, wID, 1)
		require.LessOrEqual(t, wID, 3)
		require.GreaterOrEqual(t, lines, 5)
		require.LessOrEqual(t, lines, 15)
		require.Len(t, items, lines)
		require.Len(t, supply, lines)
		require.Len(t, quantities, lines)

		local := 1
		for i, s := range supply {
			if int(s) != wID {
				local = 0
				remote++
			}
			if items[i] == unusedItem {
				require.Equal(t, lines-2, i)
				rollbacks++
			} else {
				require.GreaterOrEqual(t, items[i], int32(1))
				require.LessOrEqual(t, items[i], int32(random.MaxItems))
			}
			require.GreaterOrEqual(t, quantities[i], int32(1))
			require.LessOrEqual(t, quantities[i], int32(10))
		}
		require.Equal(t, local, allLocal)
		require.Equal(t, start, tx.args[8])
	}
	assert.Greater(t, rollbacks, 0)
	assert.Less(t, rollbacks, 60)
	assert.Greater(t, remote, 0)
}

func TestGenerator_SingleWarehouseNeverRemote(t *testing.T) {
	g := testGenerator(3, 1)
	for i := 0; i < 500; i++ {
		tx := g.newOrder(start)
		assert.Equal(t, 1, tx.args[4])
		for _, s := range tx.args[6].([]int32) {
			assert.Equal(t, int32(1), s)
		}
		p := g.payment(start)
		assert.Equal(t, 1, p.args[4])
	}
}

func TestGenerator_Payment(t *testing.T) {
	g := testGenerator(4, 5)
	byName := 0
	remote := 0
	const draws = 5000
	for i := 0; i < draws; i++ {
		tx := g.payment(start)
		require.Equal(t, paymentSql, tx.sql)
		require.Len(t, tx.args, 9)
		amount := tx.args[5].(int)
		require.GreaterOrEqual(t, amount, 1)
		require.LessOrEqual(t, amount, 5000)
		require.NotEmpty(t, tx.args[7].(string))
		if tx.args[6].(bool) {
			byName++
		}
		if tx.args[4] != tx.args[0] {
			remote++
		}
	}
	assert.InDelta(t, 0.6*draws, byName, 0.05*draws)
	assert.InDelta(t, 0.15*draws, remote, 0.03*draws)
}

func TestGenerator_ReadOnlyTransactionsHaveNoTimestamp(t *testing.T) {
	g := testGenerator(5, 2)
	assert.True(t, g.orderStatus().timestamp.IsZero())
	assert.True(t, g.stockLevel().timestamp.IsZero())
	assert.False(t, g.delivery(start).timestamp.IsZero())

	level := g.stockLevel().args[2].(int)
	assert.GreaterOrEqual(t, level, 10)
	assert.LessOrEqual(t, level, 20)

	delivery := g.delivery(start)
	assert.Equal(t, deliverySql, delivery.sql)
	assert.Equal(t, random.DistPerWarehouse, delivery.args[2])
}
