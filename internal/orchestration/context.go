package orchestration

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/generate"
	"github.com/lucidlink/teamcache/internal/inventory"
	"github.com/lucidlink/teamcache/internal/platform/shell"
	"github.com/lucidlink/teamcache/internal/provision"
	"github.com/lucidlink/teamcache/internal/service"
	"github.com/lucidlink/teamcache/internal/verify"
)

// FilesystemProvisioner prepares the plan's devices as cache volumes.
type FilesystemProvisioner interface {
	Provision(ctx context.Context, plan config.Plan, devices []inventory.BlockDevice) ([]provision.MountEntry, error)
}

// ArtifactInstaller writes artifacts and installs units.
type ArtifactInstaller interface {
	Install(ctx context.Context, plan config.Plan, artifacts []generate.Artifact) error
}

// DeploymentVerifier checks the deployed services.
type DeploymentVerifier interface {
	Verify(ctx context.Context, plan config.Plan) (verify.Report, error)
}

// State holds the shared results of deployment phases. It is
// progressively populated as each phase completes and is read by the
// phases that follow.
type State struct {
	// Discovery results
	Devices []inventory.BlockDevice
	// Devices from the discovery list matched to plan order
	Selected []inventory.BlockDevice

	// Validation outcome, kept for reporting
	Validation config.ValidationResult

	// Provisioning results
	Mounts []provision.MountEntry

	// Rendered artifacts
	Artifacts []generate.Artifact

	// Verification outcome
	Report verify.Report

	// Mutations lists every completed change to the machine, in order,
	// so a failure report tells the operator what already happened.
	Mutations []string
}

// Mutated records a completed mutation.
func (s *State) Mutated(description string) {
	s.Mutations = append(s.Mutations, description)
}

// Context wraps all dependencies and state needed by deployment phases.
type Context struct {
	context.Context
	Plan     config.Plan
	State    *State
	DryRun   bool
	Log      zerolog.Logger
	Observer Observer

	Inventory   inventory.Inventory
	Provisioner FilesystemProvisioner
	Renderer    func(config.Plan, []provision.MountEntry) ([]generate.Artifact, error)
	Installer   ArtifactInstaller
	Verifier    DeploymentVerifier
}

// NewContext wires a deployment context with the real implementations
// on top of runner.
func NewContext(ctx context.Context, plan config.Plan, runner shell.Runner, log zerolog.Logger) *Context {
	return &Context{
		Context:     ctx,
		Plan:        plan,
		State:       &State{},
		Log:         log,
		Observer:    NewLogObserver(log),
		Inventory:   inventory.New(runner),
		Provisioner: provision.NewProvisioner(runner),
		Renderer:    generate.Render,
		Installer:   service.NewInstaller(runner, log),
		Verifier:    verify.NewVerifier(runner, log),
	}
}
