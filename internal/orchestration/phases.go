package orchestration

import (
	"fmt"

	"github.com/lucidlink/teamcache/internal/config"
)

// Phase is one step of the deployment pipeline.
type Phase interface {
	// Name returns the phase's name as shown to operators.
	Name() string

	// Run executes the phase against the shared context.
	Run(ctx *Context) error
}

// DiscoverPhase queries live block device state. Discovery is never
// cached across runs; every run sees the machine as it is now.
type DiscoverPhase struct{}

func (DiscoverPhase) Name() string { return "discover" }

func (DiscoverPhase) Run(ctx *Context) error {
	devices, err := ctx.Inventory.List(ctx)
	if err != nil {
		return fmt.Errorf("device discovery: %w", err)
	}
	ctx.State.Devices = devices
	ctx.Observer.Printf("discovered %d block devices", len(devices))
	return nil
}

// ValidatePhase checks the plan against discovered state. It aggregates
// every violation so the operator fixes them in one pass, and it runs
// identically with or without dry-run.
type ValidatePhase struct{}

func (ValidatePhase) Name() string { return "validate" }

func (ValidatePhase) Run(ctx *Context) error {
	result := config.Validate(ctx, ctx.Plan, ctx.Inventory)
	ctx.State.Validation = result

	for _, w := range result.Warnings() {
		ctx.Observer.Event(Event{Type: EventWarning, Phase: "validate", Message: w.Error()})
	}
	if err := result.Err(); err != nil {
		return err
	}

	// Resolve the plan's device paths against the discovery list so
	// later phases work from the same snapshot validation approved.
	ctx.State.Selected = ctx.State.Selected[:0]
	for _, path := range ctx.Plan.Devices {
		dev, err := ctx.Inventory.Describe(ctx, path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		ctx.State.Selected = append(ctx.State.Selected, dev)
	}
	return nil
}

// ProvisionPhase formats (when allowed) and mounts the cache volumes.
type ProvisionPhase struct{}

func (ProvisionPhase) Name() string { return "provision" }

func (ProvisionPhase) Run(ctx *Context) error {
	mounts, err := ctx.Provisioner.Provision(ctx, ctx.Plan, ctx.State.Selected)
	if err != nil {
		return err
	}
	ctx.State.Mounts = mounts
	for _, m := range mounts {
		ctx.State.Mutated(fmt.Sprintf("mounted %s at %s", m.Device, m.MountPoint))
	}
	ctx.State.Mutated("updated fstab records")
	return nil
}

// GeneratePhase renders all configuration artifacts in memory.
type GeneratePhase struct{}

func (GeneratePhase) Name() string { return "generate" }

func (GeneratePhase) Run(ctx *Context) error {
	artifacts, err := ctx.Renderer(ctx.Plan, ctx.State.Mounts)
	if err != nil {
		return err
	}
	ctx.State.Artifacts = artifacts
	ctx.Observer.Printf("rendered %d artifacts", len(artifacts))
	return nil
}

// InstallPhase writes artifacts and installs the systemd units.
type InstallPhase struct{}

func (InstallPhase) Name() string { return "install" }

func (InstallPhase) Run(ctx *Context) error {
	if err := ctx.Installer.Install(ctx, ctx.Plan, ctx.State.Artifacts); err != nil {
		return err
	}
	for _, a := range ctx.State.Artifacts {
		ctx.State.Mutated("installed " + a.Path)
	}
	ctx.State.Mutated("services enabled and started")
	return nil
}

// VerifyPhase confirms the deployed services are healthy. An unhealthy
// result fails the deployment; a cache that is installed but not
// serving is not a success.
type VerifyPhase struct{}

func (VerifyPhase) Name() string { return "verify" }

func (VerifyPhase) Run(ctx *Context) error {
	report, err := ctx.Verifier.Verify(ctx, ctx.Plan)
	if err != nil {
		return err
	}
	ctx.State.Report = report

	if !report.Healthy() {
		var details []string
		for _, u := range report.Units {
			if !u.Healthy {
				details = append(details, fmt.Sprintf("%s: %s (%s)", u.Unit, u.State, u.Detail))
			}
		}
		if report.Endpoint != nil && !report.Endpoint.Responding {
			details = append(details, fmt.Sprintf("%s: %s", report.Endpoint.URL, report.Endpoint.Detail))
		}
		return fmt.Errorf("deployment is not healthy: %s", joinDetails(details))
	}
	return nil
}

func joinDetails(details []string) string {
	if len(details) == 0 {
		return "no healthy units reported"
	}
	out := details[0]
	for _, d := range details[1:] {
		out += "; " + d
	}
	return out
}
