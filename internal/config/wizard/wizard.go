package wizard

import (
	"context"
	"fmt"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/inventory"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	// Deployment
	DeploymentMode string

	// Cache storage
	Devices    []string
	DeviceMode string

	// Network
	ServerIP string
	Port     int

	// Monitoring
	Monitoring      bool
	GrafanaPassword string

	// License
	LicenseFile string

	// Set when the user explicitly confirmed a destructive format.
	FormatConfirmed bool
}

// RunWizard runs the interactive setup wizard. Device choices are taken
// from a live inventory listing so the user only sees disks that can
// actually serve as cache storage. The context is used for cancellation
// support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, inv inventory.Inventory) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runDeploymentGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("deployment: %w", err)
	}

	devices, err := inv.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("device discovery: %w", err)
	}

	if err := runDevicesGroup(ctx, result, devices); err != nil {
		return nil, fmt.Errorf("cache devices: %w", err)
	}

	if err := runNetworkGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	if err := runMonitoringGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}

	if err := runLicenseGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("license: %w", err)
	}

	return result, nil
}

// BuildPlan converts wizard answers into a deployment plan.
func BuildPlan(result *WizardResult) config.Plan {
	plan := config.NewPlan()
	plan.DeploymentMode = result.DeploymentMode
	plan.Devices = result.Devices
	plan.DeviceMode = result.DeviceMode
	plan.ServerIP = result.ServerIP
	plan.Port = result.Port
	plan.Monitoring = result.Monitoring
	plan.GrafanaPassword = result.GrafanaPassword
	if result.LicenseFile != "" {
		plan.LicenseFile = result.LicenseFile
	}
	// The in-wizard confirmation doubles as the AUTO_CONFIRM ack, so a
	// plan written by the wizard deploys without re-prompting.
	plan.AutoConfirm = result.DeviceMode == config.DeviceModeReuse || result.FormatConfirmed
	return plan
}
