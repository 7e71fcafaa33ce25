// Command membergraph serves the member GraphQL API and carries the tools
// around it: schema printing, database migration and query validation.
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
		fmt.Fprintln(os.Stderr, "membergraph:", err)
		os.Exit(1)
	}
}
