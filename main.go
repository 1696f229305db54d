package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/giantswarm/kubedriver/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd.SetVersion(version)
	cmd.Execute(ctx)
}
