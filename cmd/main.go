package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// appVersion is overridden at build time with -ldflags "-X main.appVersion=...".
var appVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
