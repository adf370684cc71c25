// Package inventory enumerates block devices and their mount state.
//
// The inventory is read-only and always queried live: device state can
// change between runs (hotplug, manual mounts) and a stale answer here is
// how disks get destroyed. Device metadata comes from lsblk's JSON output
// parsed against a strict schema; mount state is cross-checked against the
// kernel's mount table via gopsutil so that a device mounted outside of
// fstab is still reported as mounted.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/lucidlink/teamcache/internal/platform/shell"
)

// MinDeviceSize is the smallest device accepted for cache storage.
const MinDeviceSize = 10 * 1024 * 1024 * 1024 // 10 GiB

// ErrDeviceNotFound is returned by Describe for paths lsblk does not know.
var ErrDeviceNotFound = errors.New("block device not found")

// BlockDevice describes one whole-disk block device at query time.
type BlockDevice struct {
	Path       string
	Size       int64 // bytes
	SizeHuman  string
	Model      string
	Serial     string
	FSType     string // empty when unformatted
	Mounted    bool
	MountPoint string // first mount point when mounted
}

// Eligible reports whether the device may be selected for cache storage:
// unmounted (including all partitions) and at least MinDeviceSize.
func (d BlockDevice) Eligible() bool {
	return !d.Mounted && d.Size >= MinDeviceSize
}

// Inventory lists block devices. Implementations must not cache results.
type Inventory interface {
	List(ctx context.Context) ([]BlockDevice, error)
	Describe(ctx context.Context, path string) (BlockDevice, error)
}

// lsblkDevice is the strict schema for one lsblk record. Unknown fields
// are rejected at this boundary rather than propagated downstream.
type lsblkDevice struct {
	Path       string        `json:"path"`
	Size       int64         `json:"size"`
	FSType     *string       `json:"fstype"`
	MountPoint *string       `json:"mountpoint"`
	Model      *string       `json:"model"`
	Serial     *string       `json:"serial"`
	Type       string        `json:"type"`
	Children   []lsblkDevice `json:"children,omitempty"`
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

// LsblkInventory implements Inventory by shelling out to lsblk.
type LsblkInventory struct {
	runner shell.Runner

	// partitions is swapped in tests; defaults to gopsutil.
	partitions func(ctx context.Context) ([]disk.PartitionStat, error)
}

// New returns a live lsblk-backed inventory.
func New(runner shell.Runner) *LsblkInventory {
	return &LsblkInventory{
		runner: runner,
		partitions: func(ctx context.Context) ([]disk.PartitionStat, error) {
			return disk.PartitionsWithContext(ctx, false)
		},
	}
}

// List returns every whole-disk device visible to the kernel, mounted or
// not. Callers filter with BlockDevice.Eligible.
func (inv *LsblkInventory) List(ctx context.Context) ([]BlockDevice, error) {
	return inv.query(ctx, "")
}

// Describe resolves a single device path. Returns ErrDeviceNotFound when
// the path is absent or not a whole disk.
func (inv *LsblkInventory) Describe(ctx context.Context, path string) (BlockDevice, error) {
	devices, err := inv.query(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "not a block device") {
			return BlockDevice{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		}
		return BlockDevice{}, err
	}
	for _, d := range devices {
		if d.Path == path {
			return d, nil
		}
	}
	return BlockDevice{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
}

func (inv *LsblkInventory) query(ctx context.Context, path string) ([]BlockDevice, error) {
	args := []string{"-J", "-b", "-o", "PATH,SIZE,FSTYPE,MOUNTPOINT,MODEL,SERIAL,TYPE"}
	if path != "" {
		args = append(args, path)
	}
	out, err := inv.runner.Run(ctx, "lsblk", args...)
	if err != nil {
		return nil, fmt.Errorf("device discovery failed: %w", err)
	}

	parsed, err := parseLsblk([]byte(out))
	if err != nil {
		return nil, err
	}

	mountTable, err := inv.partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}

	var devices []BlockDevice
	for _, raw := range parsed.BlockDevices {
		if raw.Type != "disk" {
			continue
		}
		devices = append(devices, toBlockDevice(raw, mountTable))
	}
	return devices, nil
}

// parseLsblk decodes lsblk JSON with unknown fields rejected.
func parseLsblk(data []byte) (*lsblkOutput, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var out lsblkOutput
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("malformed lsblk output: %w", err)
	}
	for _, d := range out.BlockDevices {
		if d.Path == "" {
			return nil, fmt.Errorf("malformed lsblk output: device record without path")
		}
		if d.Size < 0 {
			return nil, fmt.Errorf("malformed lsblk output: negative size for %s", d.Path)
		}
	}
	return &out, nil
}

func toBlockDevice(raw lsblkDevice, mountTable []disk.PartitionStat) BlockDevice {
	d := BlockDevice{
		Path:      raw.Path,
		Size:      raw.Size,
		SizeHuman: humanSize(raw.Size),
		Model:     deref(raw.Model),
		Serial:    deref(raw.Serial),
		FSType:    deref(raw.FSType),
	}

	if mp := deref(raw.MountPoint); mp != "" {
		d.Mounted = true
		d.MountPoint = mp
	}
	// A disk with a mounted partition is just as unusable as a mounted disk.
	for _, child := range raw.Children {
		if mp := deref(child.MountPoint); mp != "" {
			d.Mounted = true
			if d.MountPoint == "" {
				d.MountPoint = mp
			}
		}
	}
	for _, part := range mountTable {
		if part.Device == raw.Path || strings.HasPrefix(part.Device, raw.Path) {
			d.Mounted = true
			if d.MountPoint == "" {
				d.MountPoint = part.Mountpoint
			}
		}
	}
	return d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(bytes)/float64(div), "KMGTPE"[exp])
}
