// Package provision prepares block devices as durable cache volumes:
// formatting (when allowed), mounting, and persistent mount records.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/inventory"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

// MountEntry records one provisioned cache volume.
type MountEntry struct {
	Device     string
	UUID       string
	MountPoint string
	FstabLine  string
	SizeBytes  uint64
}

// ProvisionError reports a failure preparing a single device.
type ProvisionError struct {
	Device string
	Op     string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// IsProvisionError reports whether err is a device provisioning failure.
func IsProvisionError(err error) bool {
	var pe *ProvisionError
	return errors.As(err, &pe)
}

// Provisioner formats and mounts cache devices.
type Provisioner struct {
	runner    shell.Runner
	fstabPath string
	mkdirAll  func(string, os.FileMode) error
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithFstabPath overrides the fstab location, for tests.
func WithFstabPath(path string) Option {
	return func(p *Provisioner) { p.fstabPath = path }
}

// WithMkdirAll overrides mount point creation, for tests.
func WithMkdirAll(fn func(string, os.FileMode) error) Option {
	return func(p *Provisioner) { p.mkdirAll = fn }
}

// NewProvisioner returns a Provisioner issuing commands through runner.
func NewProvisioner(runner shell.Runner, opts ...Option) *Provisioner {
	p := &Provisioner{
		runner:    runner,
		fstabPath: "/etc/fstab",
		mkdirAll:  os.MkdirAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision prepares every device in the plan and returns one mount
// entry per device, in plan order. Devices are independent block
// devices with distinct mount points, so they are prepared
// concurrently; every per-device failure is collected and the combined
// error lists all of them. The fstab rewrite and the mounts happen only
// after every device formatted cleanly.
//
// Cancellation is honored between devices, never mid-command: killing
// mkfs.xfs partway leaves a half-formatted device, so in-flight device
// work always runs to completion and the abort lands at the next
// boundary.
func (p *Provisioner) Provision(ctx context.Context, plan config.Plan, devices []inventory.BlockDevice) ([]MountEntry, error) {
	if len(devices) == 0 {
		return nil, &ProvisionError{Device: "-", Op: "plan", Err: errors.New("no devices to provision")}
	}

	work := context.WithoutCancel(ctx)

	entries := make([]MountEntry, len(devices))
	errs := make([]error, len(devices))
	skip := make([]bool, len(devices))

	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(i int, dev inventory.BlockDevice) {
			defer wg.Done()
			mountPoint := config.MountPoint(i + 1)

			// Already mounted where it belongs: a previous run did the
			// work, leave the device alone.
			if dev.Mounted && dev.MountPoint == mountPoint {
				skip[i] = true
			} else if plan.DeviceMode == config.DeviceModeFormat {
				if err := p.format(work, dev.Path); err != nil {
					errs[i] = err
					return
				}
			}

			uuid, err := p.deviceUUID(work, dev.Path)
			if err != nil {
				errs[i] = err
				return
			}

			entries[i] = MountEntry{
				Device:     dev.Path,
				UUID:       uuid,
				MountPoint: mountPoint,
				FstabLine:  fstabLine(uuid, mountPoint),
				SizeBytes:  uint64(dev.Size),
			}
		}(i, dev)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.persistMounts(work, entries); err != nil {
		return nil, err
	}

	for i, entry := range entries {
		if skip[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.mount(work, entry); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// format wipes existing signatures and creates a fresh cache filesystem.
// Callers must have passed the confirmation gate before reaching this.
func (p *Provisioner) format(ctx context.Context, device string) error {
	if _, err := p.runner.Run(ctx, "wipefs", "-a", device); err != nil {
		return &ProvisionError{Device: device, Op: "wipefs", Err: err}
	}
	if _, err := p.runner.Run(ctx, "mkfs.xfs", "-f", device); err != nil {
		return &ProvisionError{Device: device, Op: "mkfs.xfs", Err: err}
	}
	return nil
}

// deviceUUID reads the filesystem UUID used for the persistent mount
// record. Device names can change across boots, UUIDs cannot.
func (p *Provisioner) deviceUUID(ctx context.Context, device string) (string, error) {
	out, err := p.runner.Run(ctx, "blkid", "-s", "UUID", "-o", "value", device)
	if err != nil {
		return "", &ProvisionError{Device: device, Op: "blkid", Err: err}
	}
	uuid := strings.TrimSpace(out)
	if uuid == "" {
		return "", &ProvisionError{Device: device, Op: "blkid", Err: errors.New("no filesystem UUID")}
	}
	return uuid, nil
}

// persistMounts rewrites fstab with one record per entry and reloads
// the systemd mount units derived from it.
func (p *Provisioner) persistMounts(ctx context.Context, entries []MountEntry) error {
	if err := rewriteFstab(p.fstabPath, entries); err != nil {
		return &ProvisionError{Device: "-", Op: "fstab", Err: err}
	}
	if _, err := p.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return &ProvisionError{Device: "-", Op: "daemon-reload", Err: err}
	}
	return nil
}

// mount creates the mount point and mounts the volume.
func (p *Provisioner) mount(ctx context.Context, entry MountEntry) error {
	if err := p.mkdirAll(entry.MountPoint, 0o755); err != nil {
		return &ProvisionError{Device: entry.Device, Op: "mkdir", Err: err}
	}
	if _, err := p.runner.Run(ctx, "mount", entry.MountPoint); err != nil {
		return &ProvisionError{Device: entry.Device, Op: "mount", Err: err}
	}
	return nil
}

// fstabLine renders the persistent mount record for a cache volume.
func fstabLine(uuid, mountPoint string) string {
	return fmt.Sprintf("UUID=%s %s %s defaults,noatime 0 2", uuid, mountPoint, config.CacheFilesystem)
}
