package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cvforge/internal/cli"
	"cvforge/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may be set another way
	_ = godotenv.Load()

	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.UserMessage(err))
		if appErr, ok := errors.As(err); ok && appErr.Cause != nil {
			fmt.Fprintf(os.Stderr, "  caused by: %v\n", appErr.Cause)
		}
		stop()
		os.Exit(1)
	}
}
