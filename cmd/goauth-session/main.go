// Command goauth-session drives a session Manager from the terminal: log in against an
// auth backend, inspect or refresh the stored session, log out, and dry-run navigations
// through the route guard.
//
// Run against the demo backend:
//
//	go run ./examples/mock-backend &
//	go run ./cmd/goauth-session login --email admin@example.com --password admin
//	go run ./cmd/goauth-session status
//	go run ./cmd/goauth-session navigate /admin/users
//	go run ./cmd/goauth-session watch --metrics-addr :9102
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
