package main

import (
	"os"

	"github.com/armadaproject/htapbench/cmd/htapbench/cmd"
	"github.com/armadaproject/htapbench/internal/common/logging"
)

func main() {
	logging.MustConfigureApplicationLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
