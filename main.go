package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"saneamento-dashboard/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx, cmd.BuildInfo{Version: version, Commit: commit})
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
