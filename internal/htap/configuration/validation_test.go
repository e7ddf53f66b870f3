package configuration

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/htapbench/internal/common/htaperrors"
)

func validConfig() HtapConfig {
	return HtapConfig{
		Dsn:             "postgresql://postgres@localhost/htap",
		OltpWorkers:     4,
		OlapWorkers:     2,
		Duration:        time.Minute,
		OlapTimeout:     10 * time.Minute,
		DisplayInterval: time.Second,
		PersistInterval: 5 * time.Second,
		DbStatsInterval: 10 * time.Second,
		HistoryLength:   600,
		RequiredWindow:  DefaultRequiredWindow,
		ResultsDir:      "results",
		Maintenance: MaintenanceConfig{
			Interval: 5 * time.Minute,
			Tables:   []string{"new_order", "order_line"},
		},
	}
}

func TestHtapConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*HtapConfig)
		wantErr bool
		errText string
	}{
		{
			name:   "valid configuration",
			modify: func(c *HtapConfig) {},
		},
		{
			name:    "missing dsn",
			modify:  func(c *HtapConfig) { c.Dsn = "" },
			wantErr: true,
			errText: "Dsn",
		},
		{
			name:    "empty olap dsn",
			modify:  func(c *HtapConfig) { c.OlapDsns = []string{"postgresql://a", ""} },
			wantErr: true,
			errText: "OlapDsns[1]",
		},
		{
			name:    "negative workers",
			modify:  func(c *HtapConfig) { c.OltpWorkers = -1 },
			wantErr: true,
			errText: "OltpWorkers",
		},
		{
			name: "no workers",
			modify: func(c *HtapConfig) {
				c.OltpWorkers = 0
				c.OlapWorkers = 0
			},
			wantErr: true,
			errText: "at least one OLTP or OLAP worker must be configured",
		},
		{
			name: "olap only",
			modify: func(c *HtapConfig) {
				c.OltpWorkers = 0
			},
		},
		{
			name:    "zero duration",
			modify:  func(c *HtapConfig) { c.Duration = 0 },
			wantErr: true,
			errText: "duration must be positive",
		},
		{
			name:    "negative olap timeout",
			modify:  func(c *HtapConfig) { c.OlapTimeout = -time.Second },
			wantErr: true,
			errText: "olapTimeout must be non-negative",
		},
		{
			name:    "zero display interval",
			modify:  func(c *HtapConfig) { c.DisplayInterval = 0 },
			wantErr: true,
			errText: "displayInterval must be positive",
		},
		{
			name:    "zero persist interval",
			modify:  func(c *HtapConfig) { c.PersistInterval = 0 },
			wantErr: true,
			errText: "persistInterval must be positive",
		},
		{
			name:    "history too short",
			modify:  func(c *HtapConfig) { c.HistoryLength = 2 },
			wantErr: true,
			errText: "HistoryLength",
		},
		{
			name:    "ignored query out of range",
			modify:  func(c *HtapConfig) { c.IgnoredQueries = []int{3, 23} },
			wantErr: true,
			errText: "query ids must be between 1 and 22",
		},
		{
			name:    "negative target tps",
			modify:  func(c *HtapConfig) { c.TargetTps = -1 },
			wantErr: true,
			errText: "TargetTps",
		},
		{
			name: "maintenance enabled without tables",
			modify: func(c *HtapConfig) {
				c.Maintenance.Tables = nil
			},
			wantErr: true,
			errText: "at least one table is required",
		},
		{
			name: "maintenance disabled without tables",
			modify: func(c *HtapConfig) {
				c.Maintenance = MaintenanceConfig{}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHtapConfig_Validate_ReturnsInvalidArgument(t *testing.T) {
	config := validConfig()
	config.Duration = 0
	err := config.Validate()

	var invalidArg *htaperrors.ErrInvalidArgument
	require.True(t, errors.As(err, &invalidArg))
	assert.Equal(t, "duration", invalidArg.Name)
}

func TestHtapConfig_OlapDsnFor(t *testing.T) {
	config := validConfig()
	assert.Equal(t, config.Dsn, config.OlapDsnFor(3))

	config.OlapDsns = []string{"a", "b", "c"}
	assert.Equal(t, "a", config.OlapDsnFor(0))
	assert.Equal(t, "c", config.OlapDsnFor(2))
	assert.Equal(t, "b", config.OlapDsnFor(4))
}

func TestHtapConfig_IgnoredSet(t *testing.T) {
	config := validConfig()
	config.IgnoredQueries = []int{20, 2}
	assert.Equal(t, map[int]bool{2: true, 20: true}, config.IgnoredSet())
}

func TestHtapConfig_TickInterval(t *testing.T) {
	config := validConfig()
	assert.Equal(t, time.Second, config.TickInterval())
	config.DisplayInterval = 10 * time.Second
	assert.Equal(t, 5*time.Second, config.TickInterval())
}
