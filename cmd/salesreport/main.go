package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sales-analytics-service/cmd/salesreport/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()

	os.Exit(code)
}
