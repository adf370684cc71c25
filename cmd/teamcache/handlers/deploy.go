// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/logging"
	"github.com/lucidlink/teamcache/internal/orchestration"
	"github.com/lucidlink/teamcache/internal/platform/shell"
	"github.com/lucidlink/teamcache/internal/ui/tui"
)

// DefaultDeployFile is the deploy file looked up when no --config flag
// is given.
const DefaultDeployFile = config.DefaultConfigFilename

// DeployOptions are the deploy command flags.
type DeployOptions struct {
	ConfigPath string
	DryRun     bool
	Plain      bool
	Verbose    bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// setupLogging initializes the run logger and log file.
	setupLogging = logging.Setup

	// loadPlan loads a deployment plan from a deploy file.
	loadPlan = config.Load

	// newRunner creates the command runner deployments execute through.
	newRunner = func() shell.Runner {
		return shell.NewExecRunner()
	}

	// newDeployContext wires a deployment context.
	newDeployContext = orchestration.NewContext

	// runPipeline runs the deployment phases.
	runPipeline = orchestration.Run

	// runDeployTUI wraps a deployment with the progress dashboard.
	runDeployTUI = tui.RunDeployTUI

	// isTerminal reports whether stdout is a terminal.
	isTerminal = func() bool {
		fi, err := os.Stdout.Stat()
		return err == nil && fi.Mode()&os.ModeCharDevice != 0
	}
)

// Deploy provisions a TeamCache node from a deploy file.
//
// The deployment runs as a fixed phase pipeline: discover block
// devices, validate the plan against them, provision the cache
// filesystems, generate the Varnish Enterprise configuration, install
// the systemd services, and verify that everything came up. With
// DryRun set the pipeline stops after validation without mutating the
// machine.
//
// On failure the originating phase and every mutation that already
// completed are reported, so the operator knows what state the machine
// was left in. There is no rollback; re-running deploy converges.
func Deploy(ctx context.Context, opts DeployOptions) error {
	log, logPath := setupLogging(opts.Verbose)

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = DefaultDeployFile
	}

	plan, err := loadPlan(configPath)
	if err != nil {
		return err
	}

	log.Info().Str("config", configPath).Str("mode", plan.DeploymentMode).Msg("starting deployment")

	deployFn := deployFunc(ctx, plan, opts, log)

	if opts.Plain || !isTerminal() {
		err = deployFn(nil)
	} else {
		err = runDeployTUI(plan, opts.DryRun, deployFn)
	}
	if err != nil {
		return reportFailure(err, logPath)
	}

	printDeploySuccess(plan, opts.DryRun, logPath)
	return nil
}

// deployFunc returns the pipeline closure shared by the plain and TUI
// paths. A nil observer keeps the default log observer.
func deployFunc(ctx context.Context, plan config.Plan, opts DeployOptions, log zerolog.Logger) func(orchestration.Observer) error {
	return func(observer orchestration.Observer) error {
		dctx := newDeployContext(ctx, plan, newRunner(), log)
		dctx.DryRun = opts.DryRun
		if observer != nil {
			dctx.Observer = observer
		}
		return runPipeline(dctx)
	}
}

// reportFailure prints the failing phase and the mutations that already
// happened, then returns the original error for the exit code.
func reportFailure(err error, logPath string) error {
	var perr *orchestration.PhaseError
	if errors.As(err, &perr) {
		fmt.Fprintf(os.Stderr, "\nDeployment failed during the %s phase.\n", perr.Phase)
		if len(perr.Mutations) > 0 {
			fmt.Fprintln(os.Stderr, "Changes already made to this machine:")
			for _, m := range perr.Mutations {
				fmt.Fprintf(os.Stderr, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stderr, "Re-running deploy after fixing the cause will converge.")
		} else {
			fmt.Fprintln(os.Stderr, "No changes were made to this machine.")
		}
	}
	fmt.Fprintf(os.Stderr, "\nFull log: %s\n", logPath)
	return err
}

// printDeploySuccess outputs the completion message and next steps.
func printDeploySuccess(plan config.Plan, dryRun bool, logPath string) {
	if dryRun {
		fmt.Printf("\nDry run complete. The plan is valid; nothing was changed.\n")
		fmt.Printf("Run 'teamcache deploy' to apply it.\n")
		return
	}

	fmt.Printf("\nDeployment complete!\n")
	fmt.Printf("  Cache endpoint: %s\n", plan.Endpoint())
	if plan.Monitoring {
		fmt.Printf("  Grafana:        http://%s:3000\n", plan.ServerIP)
	}
	fmt.Printf("  Log file:       %s\n", logPath)
	fmt.Printf("\nCheck the node at any time with:\n")
	fmt.Printf("  teamcache verify\n")
}
