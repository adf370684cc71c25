package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/config/wizard"
	"github.com/lucidlink/teamcache/internal/inventory"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

func wizardAnswers() *wizard.WizardResult {
	return &wizard.WizardResult{
		DeploymentMode:  config.ModeHybrid,
		Devices:         []string{"/dev/sdb"},
		DeviceMode:      config.DeviceModeFormat,
		ServerIP:        "10.0.0.5",
		Port:            80,
		Monitoring:      false,
		LicenseFile:     "./varnish-enterprise.lic",
		FormatConfirmed: true,
	}
}

func TestSetupWritesDeployFile(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	runWizard = func(context.Context, inventory.Inventory) (*wizard.WizardResult, error) {
		return wizardAnswers(), nil
	}
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }
	newInventory = func(shell.Runner) inventory.Inventory { return inventory.NewFake() }

	outputPath := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, Setup(context.Background(), outputPath, false, false))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEVICES=/dev/sdb")
	assert.Contains(t, string(data), "AUTO_CONFIRM=true")
}

func TestSetupRefusedOverwriteKeepsFile(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	outputPath := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, os.WriteFile(outputPath, []byte("DEVICES=/dev/sdz\n"), 0600))

	confirmOverwrite = func(string) (bool, error) { return false, nil }
	runWizard = func(context.Context, inventory.Inventory) (*wizard.WizardResult, error) {
		t.Fatal("wizard must not run after a refused overwrite")
		return nil, nil
	}

	require.NoError(t, Setup(context.Background(), outputPath, false, false))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "DEVICES=/dev/sdz\n", string(data))
}

func TestSetupWizardCancelPropagates(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	runWizard = func(context.Context, inventory.Inventory) (*wizard.WizardResult, error) {
		return nil, errors.New("user aborted")
	}
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	err := Setup(context.Background(), filepath.Join(t.TempDir(), "node.env"), false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wizard canceled")
}

func TestSetupWithDeployRunsDeployment(t *testing.T) {
	saveAndRestoreFactories(t)
	quietLogging(t)

	runWizard = func(context.Context, inventory.Inventory) (*wizard.WizardResult, error) {
		return wizardAnswers(), nil
	}
	newRunner = func() shell.Runner { return shell.NewFakeRunner() }

	var deployedPath string
	runDeploy = func(_ context.Context, opts DeployOptions) error {
		deployedPath = opts.ConfigPath
		return nil
	}

	outputPath := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, Setup(context.Background(), outputPath, true, false))
	assert.Equal(t, outputPath, deployedPath)
}
