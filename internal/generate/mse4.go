package generate

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/provision"
)

const (
	// bookSize is the fixed MSE4 metadata book size per device.
	bookSize = "8G"
	// storeFraction leaves filesystem headroom after the book is carved
	// out of each device.
	storeFraction = 0.98
)

// StoreSizeGiB computes the MSE4 store size for a device: the device
// size minus the 8G book, scaled down for filesystem overhead.
func StoreSizeGiB(sizeBytes uint64) int {
	gib := float64(sizeBytes) / (1 << 30)
	return int(math.Floor((gib - 8) * storeFraction))
}

// renderMSE4 renders the MSE4 storage configuration, one book with one
// nested store per provisioned device.
func renderMSE4(plan config.Plan, mounts []provision.MountEntry) (Artifact, error) {
	if len(mounts) == 0 {
		return Artifact{}, &ConfigError{Artifact: "mse4.conf", Reason: "no provisioned devices"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# MSE4 Configuration\n# Number of devices: %d\n\nenv: {\n        books = ( {\n", len(mounts))

	for i, m := range mounts {
		ordinal := i + 1
		storeGiB := StoreSizeGiB(m.SizeBytes)
		if storeGiB <= 0 {
			return Artifact{}, &ConfigError{
				Artifact: "mse4.conf",
				Reason:   fmt.Sprintf("device %s leaves no room for a store after the %s book", m.Device, bookSize),
			}
		}

		base := containerPath(plan, m, ordinal)
		fmt.Fprintf(&sb, "                id = \"book%d\";\n", ordinal)
		fmt.Fprintf(&sb, "                filename = \"%s/book\";\n", base)
		fmt.Fprintf(&sb, "                size = \"%s\";\n\n", bookSize)
		fmt.Fprintf(&sb, "                stores = ( {\n")
		fmt.Fprintf(&sb, "                        id = \"store%d\";\n", ordinal)
		fmt.Fprintf(&sb, "                        filename = \"%s/store\";\n", base)
		fmt.Fprintf(&sb, "                        size = \"%dG\";\n", storeGiB)
		fmt.Fprintf(&sb, "                } );\n")

		if ordinal < len(mounts) {
			sb.WriteString("        }, {\n")
		}
	}
	sb.WriteString("        } );\n   };\n")

	path := WorkDir + "/mse4.conf"
	if plan.DeploymentMode == config.ModeHybrid {
		path = VarnishDir + "/mse4.conf"
	}
	return Artifact{Name: "mse4.conf", Path: path, Mode: 0o644, Content: []byte(sb.String())}, nil
}

// containerPath returns the path the cache engine sees for a mount. In
// hybrid mode the engine runs on the host and uses the mount point
// directly; in docker mode the compose file bind-mounts each device at
// /mnt/diskN inside the container.
func containerPath(plan config.Plan, m provision.MountEntry, ordinal int) string {
	if plan.DeploymentMode == config.ModeHybrid {
		return m.MountPoint
	}
	return fmt.Sprintf("/mnt/disk%d", ordinal)
}
