package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/htapbench/internal/common/logging"
)

func validateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validateConfig",
		Short: "Validates the configuration without running the benchmark",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logging.Infof("Configuration is valid: %d OLTP workers, %d OLAP workers for %s",
				config.OltpWorkers, config.OlapWorkers, config.Duration)
			return nil
		},
	}
	return cmd
}
