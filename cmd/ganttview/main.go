// Package main is the entry point for the ganttview CLI and web server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ganttview/internal/cli"
	"ganttview/internal/commands"
)

func main() {
	// Cancel on interrupt; serve shuts down gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.BasecampFactory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
