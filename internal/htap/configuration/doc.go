/*
Package configuration defines the input configuration for the htapbench load generator.

htapbench drives a combined workload against a PostgreSQL-compatible database: OLTP workers inject
order-entry style transactions at a target rate while OLAP workers run analytical query streams whose
date parameters follow the simulated data window.

# Configuration Structure

The main configuration type is HtapConfig, which defines:

  - Connection strings for the workload database, optional per-stream OLAP databases and an
    optional statistics database
  - Worker counts and the target transaction rate
  - Run duration, OLAP query timeout and the display, persist and database-statistics cadences
  - Statistics window length and the minimum simulated history required before OLAP queries run
  - Ignored query ids, plan introspection and dry-run switches
  - Maintenance (periodic VACUUM ANALYZE) settings

# Example YAML Configuration

	dsn: postgresql://postgres@localhost/htap
	oltpWorkers: 16
	olapWorkers: 2
	targetTps: 500
	duration: 30m
	olapTimeout: 10m
	displayInterval: 1s
	persistInterval: 5s
	ignoredQueries: [20]
	maintenance:
	  interval: 5m
	  tables: [new_order, order_line]

# Validation

HtapConfig carries validate struct tags that are checked with go-playground/validator, and a Validate()
method that performs the cross-field checks:

  - At least one worker of either kind must be configured
  - Durations and cadences must be positive where required
  - Ignored query ids must name one of the 22 analytical queries
  - The statistics window must hold at least three seconds

Example usage:

	var config HtapConfig
	if _, err := common.LoadConfig(&config, "./config/htapbench", userConfigs); err != nil {
	    return err
	}
	if err := config.Validate(); err != nil {
	    return errors.WithMessage(err, "invalid configuration")
	}
*/

package configuration
