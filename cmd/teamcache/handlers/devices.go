package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/lucidlink/teamcache/internal/inventory"
)

// devicesOut is where the device table is written. Replaced in tests.
var devicesOut io.Writer = os.Stdout

var devicesHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6b7280"))

// Devices lists the block devices on this machine. With all set,
// ineligible devices are included with the reason they were excluded.
func Devices(ctx context.Context, all bool) error {
	inv := newInventory(newRunner())

	devices, err := inv.List(ctx)
	if err != nil {
		return fmt.Errorf("device discovery failed: %w", err)
	}

	printed := 0
	header := fmt.Sprintf("%-16s %-10s %-24s %-10s %s", "DEVICE", "SIZE", "MODEL", "FSTYPE", "STATUS")
	fmt.Fprintln(devicesOut, devicesHeaderStyle.Render(header))
	for _, dev := range devices {
		status := deviceStatus(dev)
		if !all && !dev.Eligible() {
			continue
		}
		fsType := dev.FSType
		if fsType == "" {
			fsType = "-"
		}
		model := dev.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(devicesOut, "%-16s %-10s %-24s %-10s %s\n", dev.Path, dev.SizeHuman, model, fsType, status)
		printed++
	}

	if printed == 0 {
		fmt.Fprintln(devicesOut, "\nNo eligible cache devices found. Use --all to see why devices were excluded.")
	}
	return nil
}

// deviceStatus describes device eligibility for the listing.
func deviceStatus(dev inventory.BlockDevice) string {
	switch {
	case dev.Mounted:
		return fmt.Sprintf("mounted at %s", dev.MountPoint)
	case dev.Size < inventory.MinDeviceSize:
		return "too small"
	default:
		return "eligible"
	}
}
