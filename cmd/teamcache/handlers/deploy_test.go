package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/orchestration"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origSetupLogging := setupLogging
	origLoadPlan := loadPlan
	origNewRunner := newRunner
	origNewDeployContext := newDeployContext
	origRunPipeline := runPipeline
	origRunDeployTUI := runDeployTUI
	origIsTerminal := isTerminal
	origRunWizard := runWizard
	origWritePlan := writePlan
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origNewInventory := newInventory
	origRunDeploy := runDeploy
	origNewVerifier := newVerifier
	origDevicesOut := devicesOut

	t.Cleanup(func() {
		setupLogging = origSetupLogging
		loadPlan = origLoadPlan
		newRunner = origNewRunner
		newDeployContext = origNewDeployContext
		runPipeline = origRunPipeline
		runDeployTUI = origRunDeployTUI
		isTerminal = origIsTerminal
		runWizard = origRunWizard
		writePlan = origWritePlan
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		newInventory = origNewInventory
		runDeploy = origRunDeploy
		newVerifier = origNewVerifier
		devicesOut = origDevicesOut
	})
}

// quietLogging keeps handler tests from writing log files.
func quietLogging(t *testing.T) {
	t.Helper()
	setupLogging = func(bool) (zerolog.Logger, string) {
		return zerolog.Nop(), filepath.Join(t.TempDir(), "test.log")
	}
}

func writeDeployFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.env")
	content := "DEPLOYMENT_MODE=hybrid\nDEVICES=/dev/sdb\nSERVER_IP=10.0.0.5\nAUTO_CONFIRM=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDeployPlainRunsPipeline(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	var gotPlan config.Plan
	var gotDryRun bool
	runPipeline = func(ctx *orchestration.Context) error {
		gotPlan = ctx.Plan
		gotDryRun = ctx.DryRun
		return nil
	}
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	err := Deploy(context.Background(), DeployOptions{
		ConfigPath: writeDeployFile(t),
		DryRun:     true,
		Plain:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/sdb"}, gotPlan.Devices)
	assert.True(t, gotDryRun)
}

func TestDeployMissingConfigFails(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	err := Deploy(context.Background(), DeployOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.env"),
		Plain:      true,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read deploy file")
}

func TestDeployPropagatesPhaseError(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	phaseErr := &orchestration.PhaseError{
		Phase:     "provision",
		Mutations: []string{"formatted /dev/sdb as xfs"},
		Err:       assert.AnError,
	}
	runPipeline = func(*orchestration.Context) error { return phaseErr }
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	err := Deploy(context.Background(), DeployOptions{
		ConfigPath: writeDeployFile(t),
		Plain:      true,
	})
	require.Error(t, err)
	assert.True(t, orchestration.IsPhaseError(err))
}

func TestDeployUsesTUIOnTerminal(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	isTerminal = func() bool { return true }
	tuiCalled := false
	runDeployTUI = func(plan config.Plan, dryRun bool, deployFn func(orchestration.Observer) error) error {
		tuiCalled = true
		return deployFn(nil)
	}
	runPipeline = func(*orchestration.Context) error { return nil }
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	err := Deploy(context.Background(), DeployOptions{ConfigPath: writeDeployFile(t)})
	require.NoError(t, err)
	assert.True(t, tuiCalled)
}

func TestDeployPlainSkipsTUI(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	isTerminal = func() bool { return true }
	runDeployTUI = func(config.Plan, bool, func(orchestration.Observer) error) error {
		t.Fatal("TUI must not run with --plain")
		return nil
	}
	runPipeline = func(*orchestration.Context) error { return nil }
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	err := Deploy(context.Background(), DeployOptions{ConfigPath: writeDeployFile(t), Plain: true})
	require.NoError(t, err)
}
