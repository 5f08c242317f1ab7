package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"localconfig.dev/cli/internal/interfaces/cli"
	"localconfig.dev/cli/internal/interfaces/di"
)

func main() {
	container := di.NewContainer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer container.Shutdown(context.Background())

	cli.Execute(ctx, container.GetCLIContainer())
}
