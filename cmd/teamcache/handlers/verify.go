package handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/platform/shell"
	"github.com/lucidlink/teamcache/internal/verify"
)

// newVerifier creates the deployment verifier. Replaced in tests.
var newVerifier = func(runner shell.Runner, log zerolog.Logger) deploymentVerifier {
	return verify.NewVerifier(runner, log)
}

// deploymentVerifier matches verify.Verifier for testing.
type deploymentVerifier interface {
	Verify(ctx context.Context, plan config.Plan) (verify.Report, error)
}

// Verify checks the health of an already deployed node and prints a
// per-unit report. It returns an error when the node is unhealthy so
// the exit code is usable in scripts.
func Verify(ctx context.Context, configPath string) error {
	log, _ := setupLogging(false)

	if configPath == "" {
		configPath = DefaultDeployFile
	}
	plan, err := loadPlan(configPath)
	if err != nil {
		return err
	}

	report, err := newVerifier(newRunner(), log).Verify(ctx, plan)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	printReport(report)

	if !report.Healthy() {
		return fmt.Errorf("node is unhealthy")
	}
	return nil
}

// printReport prints the verification outcome per unit and endpoint.
func printReport(report verify.Report) {
	fmt.Println()
	for _, unit := range report.Units {
		mark := "ok"
		if !unit.Healthy {
			mark = "FAIL"
		}
		detail := unit.Detail
		if detail == "" {
			detail = unit.State
		}
		fmt.Printf("  [%-4s] %-28s %s\n", mark, unit.Unit, detail)
	}
	if report.Endpoint != nil {
		mark := "ok"
		if !report.Endpoint.Responding {
			mark = "FAIL"
		}
		detail := fmt.Sprintf("HTTP %d", report.Endpoint.StatusCode)
		if report.Endpoint.Detail != "" {
			detail = report.Endpoint.Detail
		}
		fmt.Printf("  [%-4s] %-28s %s\n", mark, report.Endpoint.URL, detail)
	}
	fmt.Println()
}
