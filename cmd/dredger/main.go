// Command dredger infers the schema of a corpus of YAML or JSON documents.
//
//	dredger <target> [lists...]
//	dredger mcp
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/dredger/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(config.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
