package wizard

import (
	"context"
	"net"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/inventory"
)

// runDeploymentGroup prompts for the deployment mode.
func runDeploymentGroup(ctx context.Context, result *WizardResult) error {
	result.DeploymentMode = config.ModeHybrid // default

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Deployment Mode").
				Description("How the cache engine runs on this host").
				Options(DeploymentModeOptions...).
				Value(&result.DeploymentMode),
		).Title("Deployment"),
	).RunWithContext(ctx)
}

// runDevicesGroup prompts for cache device selection and preparation mode.
func runDevicesGroup(ctx context.Context, result *WizardResult, devices []inventory.BlockDevice) error {
	opts := DevicesToOptions(devices)
	if len(opts) == 0 {
		return errNoEligibleDevices
	}

	result.DeviceMode = config.DeviceModeFormat // default

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Cache Devices").
				Description("Select the disks that will hold the cache").
				Options(opts...).
				Value(&result.Devices).
				Validate(validateDeviceSelection),
			huh.NewSelect[string]().
				Title("Device Preparation").
				Description("Format wipes the disks; reuse mounts existing XFS filesystems").
				Options(DeviceModeOptions...).
				Value(&result.DeviceMode),
		).Title("Cache Storage"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	// Formatting destroys data, so it gets its own explicit confirmation
	// rather than being buried in the group above.
	if result.DeviceMode == config.DeviceModeFormat {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Confirm Format").
					Description("ALL DATA on " + strings.Join(result.Devices, ", ") + " will be erased. Continue?").
					Affirmative("Erase and format").
					Negative("Cancel").
					Value(&result.FormatConfirmed),
			).Title("Destructive Operation"),
		).RunWithContext(ctx)
	}

	return nil
}

// runNetworkGroup prompts for the server address and listen port.
func runNetworkGroup(ctx context.Context, result *WizardResult) error {
	result.Port = config.DefaultPort

	ipOpts := ServerIPOptions()
	group := huh.NewGroup(
		huh.NewSelect[int]().
			Title("Listen Port").
			Description("Port clients connect to").
			Options(PortOptions...).
			Value(&result.Port),
	)

	if len(ipOpts) > 0 {
		result.ServerIP = ipOpts[0].Value
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server IP").
				Description("Address clients will use to reach this cache").
				Options(ipOpts...).
				Value(&result.ServerIP),
			huh.NewSelect[int]().
				Title("Listen Port").
				Description("Port clients connect to").
				Options(PortOptions...).
				Value(&result.Port),
		)
	} else {
		// No usable interface addresses; fall back to free-form input.
		group = huh.NewGroup(
			huh.NewInput().
				Title("Server IP").
				Description("Address clients will use to reach this cache").
				Placeholder("192.168.1.10").
				Value(&result.ServerIP).
				Validate(validateServerIP),
			huh.NewSelect[int]().
				Title("Listen Port").
				Description("Port clients connect to").
				Options(PortOptions...).
				Value(&result.Port),
		)
	}

	return huh.NewForm(group.Title("Network")).RunWithContext(ctx)
}

// runMonitoringGroup prompts for the monitoring stack and Grafana password.
func runMonitoringGroup(ctx context.Context, result *WizardResult) error {
	result.Monitoring = true

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable Monitoring").
				Description("Prometheus and Grafana dashboards for cache metrics").
				Value(&result.Monitoring),
		).Title("Monitoring"),
	).RunWithContext(ctx)

	if err != nil || !result.Monitoring {
		return err
	}

	var confirm string
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Grafana Admin Password").
				EchoMode(huh.EchoModePassword).
				Value(&result.GrafanaPassword).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm Password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm),
		).Title("Grafana Access"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}
	if confirm != result.GrafanaPassword {
		return errPasswordMismatch
	}
	return nil
}

// runLicenseGroup prompts for the license file path.
func runLicenseGroup(ctx context.Context, result *WizardResult) error {
	result.LicenseFile = config.DefaultLicenseFile

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("License File").
				Description("Path to the Varnish Enterprise license").
				Placeholder(config.DefaultLicenseFile).
				Value(&result.LicenseFile),
		).Title("License"),
	).RunWithContext(ctx)
}

// validateDeviceSelection requires at least one device.
func validateDeviceSelection(devices []string) error {
	if len(devices) == 0 {
		return errDevicesRequired
	}
	return nil
}

// validateServerIP validates a dotted-quad or IPv6 address.
func validateServerIP(s string) error {
	if s == "" {
		return errServerIPRequired
	}
	if net.ParseIP(s) == nil {
		return errServerIPInvalid
	}
	return nil
}

// validatePassword enforces a minimal Grafana password policy.
func validatePassword(s string) error {
	if s == "" {
		return errPasswordRequired
	}
	if len(s) < 8 {
		return errPasswordTooShort
	}
	return nil
}
