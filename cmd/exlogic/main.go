package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/exlogic/internal/cmd"
	"github.com/felixgeelhaar/exlogic/internal/exitcode"
)

func main() {
	// Cancel the batch on interrupt; units already running finish
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		exitcode.Exit(exitcode.Report(os.Stderr, err))
	}
	exitcode.Exit(exitcode.Success)
}
