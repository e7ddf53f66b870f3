package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/htapbench/internal/common"
	commonconfig "github.com/armadaproject/htapbench/internal/common/config"
	"github.com/armadaproject/htapbench/internal/htap/configuration"
)

const (
	CustomConfigLocation string = "config"
	defaultConfigPath    string = "./config/htapbench"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "htapbench",
		SilenceUsage: true,
		Short:        "Mixed transactional and analytical load generator for PostgreSQL",
	}

	cmd.PersistentFlags().StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")

	cmd.AddCommand(
		runCmd(),
		validateConfigCmd(),
		queriesCmd(),
	)

	return cmd
}

// loadConfig merges the default config, user supplied files, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (configuration.HtapConfig, error) {
	var config configuration.HtapConfig
	userSpecifiedConfigs, err := cmd.Flags().GetStringSlice(CustomConfigLocation)
	if err != nil {
		return config, err
	}

	v, err := common.LoadConfig(&config, defaultConfigPath, userSpecifiedConfigs)
	if err != nil {
		return config, err
	}
	if err := common.BindFlags(v, cmd.Flags(), &config); err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return config, err
	}
	return config, nil
}
