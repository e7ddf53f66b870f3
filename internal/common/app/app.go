package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/armadaproject/htapbench/internal/common/htapcontext"
	"github.com/armadaproject/htapbench/internal/common/logging"
)

// CreateContextWithShutdown returns a context that will report done when a SIGINT or SIGTERM is received
func CreateContextWithShutdown() *htapcontext.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			logging.Infof("Received %s, stopping benchmark", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return htapcontext.New(ctx, logging.StdLogger())
}
