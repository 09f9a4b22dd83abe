package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qsearch/qsearch/internal/cli"
)

func main() {
	// First Ctrl+C cancels the context so in-flight commits finish cleanly;
	// a second one kills the process the usual way.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
