// Command agglotrain trains an agglomerative feature graph from a YAML run
// configuration and prints a JSON report of every depth.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "agglotrain:", err)
		os.Exit(1)
	}
}
