package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pulseanime/internal/app"
	"pulseanime/internal/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "pulseanime: %v\n", err)
		os.Exit(1)
	}
}
