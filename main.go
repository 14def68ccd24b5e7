package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"listing_combiner/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
