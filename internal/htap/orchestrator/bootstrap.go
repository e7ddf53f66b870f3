package orchestrator

import (
	"context"
	"time"

	"github.com/jackc/pgtype"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/htap/configuration"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
)

const (
	deliveryRangeSql = "SELECT min(ol_delivery_d), max(ol_delivery_d) FROM order_line"
	warehousesSql    = "SELECT count(distinct(w_id)) FROM warehouse"
	prepareHint      = "has the benchmark database been prepared?"
)

// Bootstrap is the state of the database when the run starts.
type Bootstrap struct {
	// Oldest and newest order line delivery dates.
	Min        time.Time
	Latest     time.Time
	Warehouses int
}

// RunBootstrap reads the data range and the warehouse count. A dry run pretends the database already
// holds the required window of history in a single warehouse.
func RunBootstrap(ctx context.Context, executor dbexec.Executor, config configuration.HtapConfig, c clock.PassiveClock) (Bootstrap, error) {
	if config.DryRun {
		now := c.Now().UTC()
		return Bootstrap{Min: now.Add(-config.RequiredWindow), Latest: now, Warehouses: 1}, nil
	}

	var min, latest pgtype.Timestamp
	if err := executor.QueryRow(ctx, deliveryRangeSql).Scan(&min, &latest); err != nil {
		return Bootstrap{}, errors.Wrapf(err, "failed to read the order line date range, %s", prepareHint)
	}
	if min.Status != pgtype.Present || latest.Status != pgtype.Present {
		return Bootstrap{}, errors.Errorf("order_line holds no delivery dates, %s", prepareHint)
	}

	var warehouses int64
	if err := executor.QueryRow(ctx, warehousesSql).Scan(&warehouses); err != nil {
		return Bootstrap{}, errors.Wrapf(err, "failed to count warehouses, %s", prepareHint)
	}
	if warehouses < 1 {
		return Bootstrap{}, errors.Errorf("warehouse table is empty, %s", prepareHint)
	}
	return Bootstrap{Min: min.Time.UTC(), Latest: latest.Time.UTC(), Warehouses: int(warehouses)}, nil
}
