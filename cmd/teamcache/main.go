// Package main is the entry point for the teamcache CLI.
//
// teamcache provisions a LucidLink TeamCache node: it prepares cache
// storage devices, generates the Varnish Enterprise and MSE4
// configuration, installs the systemd services, and verifies that the
// cache came up healthy.
//
// Commands: setup, deploy, devices, verify.
//
// For detailed usage information, run:
//
//	teamcache --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucidlink/teamcache/cmd/teamcache/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
