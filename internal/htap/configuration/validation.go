package configuration

import (
	"fmt"

	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/htapbench/internal/common/config"
	"github.com/armadaproject/htapbench/internal/common/htaperrors"
)

// Validate checks the struct tags and the cross-field rules of the configuration.
func (c HtapConfig) Validate() error {
	if err := commonconfig.Validate(c); err != nil {
		return err
	}
	if c.OltpWorkers == 0 && c.OlapWorkers == 0 {
		return invalid("oltpWorkers", c.OltpWorkers, "at least one OLTP or OLAP worker must be configured")
	}
	if c.Duration <= 0 {
		return invalid("duration", c.Duration, "duration must be positive")
	}
	if c.OlapTimeout < 0 {
		return invalid("olapTimeout", c.OlapTimeout, "olapTimeout must be non-negative")
	}
	if c.DisplayInterval <= 0 {
		return invalid("displayInterval", c.DisplayInterval, "displayInterval must be positive")
	}
	if c.PersistInterval <= 0 {
		return invalid("persistInterval", c.PersistInterval, "persistInterval must be positive")
	}
	if c.DbStatsInterval <= 0 {
		return invalid("dbStatsInterval", c.DbStatsInterval, "dbStatsInterval must be positive")
	}
	if c.RequiredWindow < 0 {
		return invalid("requiredWindow", c.RequiredWindow, "requiredWindow must be non-negative")
	}
	for _, id := range c.IgnoredQueries {
		if id < 1 || id > NumQueries {
			return invalid("ignoredQueries", id, fmt.Sprintf("query ids must be between 1 and %d", NumQueries))
		}
	}
	if c.ConnectRetryDelay < 0 {
		return invalid("connectRetryDelay", c.ConnectRetryDelay, "connectRetryDelay must be non-negative")
	}
	if err := c.Maintenance.Validate(); err != nil {
		return err
	}
	return nil
}

func (m MaintenanceConfig) Validate() error {
	if m.Interval < 0 {
		return invalid("maintenance.interval", m.Interval, "maintenance interval must be non-negative")
	}
	if m.Interval > 0 && len(m.Tables) == 0 {
		return invalid("maintenance.tables", m.Tables, "at least one table is required when maintenance is enabled")
	}
	return nil
}

func invalid(name string, value interface{}, message string) error {
	return errors.WithStack(&htaperrors.ErrInvalidArgument{
		Name:    name,
		Value:   value,
		Message: message,
	})
}
