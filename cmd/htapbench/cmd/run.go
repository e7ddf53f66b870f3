package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/armadaproject/htapbench/internal/common/app"
	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/orchestrator"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the benchmark",
		RunE:  runBenchmark,
	}
	cmd.Flags().String("dsn", "", "Connection string of the database under test")
	cmd.Flags().Int("oltpWorkers", 0, "Number of transactional workers")
	cmd.Flags().Int("olapWorkers", 0, "Number of analytical query streams")
	cmd.Flags().Duration("duration", 0, "How long to run the benchmark for")
	cmd.Flags().Float64("targetTps", 0, "Combined transaction rate across all OLTP workers, 0 for unlimited")
	cmd.Flags().Bool("dryRun", false, "Simulate the database instead of connecting to it")
	cmd.Flags().Bool("explainAnalyze", false, "Store the execution plan of every analytical query")
	cmd.Flags().Bool("dontWaitForData", false, "Run analytical queries before enough history has been generated")
	cmd.Flags().String("ignoredQueries", "", "Comma separated analytical query ids to skip")
	cmd.Flags().String("resultsDir", "", "Directory receiving the result files")
	return cmd
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := app.CreateContextWithShutdown()
	env := orchestrator.NewEnv(config, logging.StdLogger(), os.Stdout)
	if err := orchestrator.NewController(env).Run(ctx); err != nil {
		logging.WithStacktrace(err).Error("Benchmark failed")
		return err
	}
	return nil
}
