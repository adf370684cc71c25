// Package service installs rendered artifacts and manages the systemd
// units that run the cache and its monitoring stack.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/generate"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

// LicenseName is the filename the engine expects for its license.
const LicenseName = "varnish-enterprise.lic"

// ServiceError reports a failed service-manager operation.
type ServiceError struct {
	Unit string
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s: %s: %v", e.Unit, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is a service-manager failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// Installer writes artifacts to their destinations and installs units.
type Installer struct {
	runner shell.Runner
	log    zerolog.Logger
	// root is prepended to every destination path; tests point it at a
	// temporary directory.
	root string
}

// Option configures an Installer.
type Option func(*Installer)

// WithRoot redirects all writes under dir, for tests.
func WithRoot(dir string) Option {
	return func(i *Installer) { i.root = dir }
}

// NewInstaller returns an Installer issuing systemctl through runner.
func NewInstaller(runner shell.Runner, log zerolog.Logger, opts ...Option) *Installer {
	inst := &Installer{runner: runner, log: log}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Install writes every artifact, copies the license, and installs the
// units. Units are installed stop → replace → start so a re-deploy
// replaces a running service instead of stacking a second copy.
func (i *Installer) Install(ctx context.Context, plan config.Plan, artifacts []generate.Artifact) error {
	var units []generate.Artifact

	for _, a := range artifacts {
		if isUnit(a) {
			units = append(units, a)
			continue
		}
		if err := i.writeArtifact(a); err != nil {
			return err
		}
		i.log.Info().Str("path", a.Path).Msg("installed artifact")
	}

	if err := i.installLicense(plan); err != nil {
		return err
	}

	return i.installUnits(ctx, units)
}

// installUnits replaces and (re)starts each unit. Stops happen before
// the unit file changes so the old definition shuts itself down.
func (i *Installer) installUnits(ctx context.Context, units []generate.Artifact) error {
	for _, unit := range units {
		if i.unitActive(ctx, unit.Name) {
			if _, err := i.runner.Run(ctx, "systemctl", "stop", unit.Name); err != nil {
				return &ServiceError{Unit: unit.Name, Op: "stop", Err: err}
			}
			i.log.Info().Str("unit", unit.Name).Msg("stopped running unit for replacement")
		}
		if err := i.writeArtifact(unit); err != nil {
			return err
		}
	}

	if _, err := i.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return &ServiceError{Unit: "-", Op: "daemon-reload", Err: err}
	}

	for _, unit := range units {
		if _, err := i.runner.Run(ctx, "systemctl", "enable", unit.Name); err != nil {
			return &ServiceError{Unit: unit.Name, Op: "enable", Err: err}
		}
		if _, err := i.runner.Run(ctx, "systemctl", "start", unit.Name); err != nil {
			return &ServiceError{Unit: unit.Name, Op: "start", Err: err}
		}
		i.log.Info().Str("unit", unit.Name).Msg("unit started")
	}
	return nil
}

// installLicense copies the license next to the engine configuration:
// /etc/varnish in hybrid mode, the compose directory in docker mode. A
// missing license is a warning; the deployment proceeds and the engine
// reports it at start.
func (i *Installer) installLicense(plan config.Plan) error {
	src, err := os.Open(plan.LicenseFile)
	if err != nil {
		if os.IsNotExist(err) {
			i.log.Warn().Str("path", plan.LicenseFile).Msg("license file missing, service will not start without it")
			return nil
		}
		return fmt.Errorf("read license: %w", err)
	}
	defer src.Close()

	dir := generate.WorkDir
	if plan.DeploymentMode == config.ModeHybrid {
		dir = generate.VarnishDir
	}
	dest := filepath.Join(i.root, dir, LicenseName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("install license: %w", err)
	}

	// 0640: license material is not world-readable.
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("install license: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("install license: %w", err)
	}
	i.log.Info().Str("path", dest).Msg("installed license")
	return nil
}

func (i *Installer) writeArtifact(a generate.Artifact) error {
	dest := filepath.Join(i.root, a.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("install %s: %w", a.Name, err)
	}
	if err := os.WriteFile(dest, a.Content, a.Mode); err != nil {
		return fmt.Errorf("install %s: %w", a.Name, err)
	}
	return nil
}

// unitActive reports whether systemd considers the unit active.
// is-active exits non-zero for inactive units, so errors mean "not
// running", not failure.
func (i *Installer) unitActive(ctx context.Context, unit string) bool {
	out, err := i.runner.Run(ctx, "systemctl", "is-active", unit)
	return err == nil && strings.TrimSpace(out) == "active"
}

func isUnit(a generate.Artifact) bool {
	return strings.HasPrefix(a.Path, generate.SystemdDir+"/")
}
