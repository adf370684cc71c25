package wizard

import (
	"fmt"
	"net"

	"github.com/charmbracelet/huh"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/inventory"
)

// DeploymentModeOptions contains the supported deployment modes.
var DeploymentModeOptions = []huh.Option[string]{
	huh.NewOption("Hybrid - Varnish on the host, monitoring in containers (recommended)", config.ModeHybrid),
	huh.NewOption("Docker - everything in containers", config.ModeDocker),
}

// DeviceModeOptions contains the supported device preparation modes.
var DeviceModeOptions = []huh.Option[string]{
	huh.NewOption("Format - wipe and create a fresh XFS filesystem (DESTROYS ALL DATA)", config.DeviceModeFormat),
	huh.NewOption("Reuse - mount existing XFS filesystems without formatting", config.DeviceModeReuse),
}

// PortOptions contains common HTTP listen ports.
var PortOptions = []huh.Option[int]{
	huh.NewOption("80 (default)", 80),
	huh.NewOption("8080", 8080),
	huh.NewOption("6081", 6081),
}

// DevicesToOptions converts discovered block devices to multi-select
// options. Only eligible devices are offered.
func DevicesToOptions(devices []inventory.BlockDevice) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, dev := range devices {
		if !dev.Eligible() {
			continue
		}
		label := fmt.Sprintf("%s - %s", dev.Path, dev.SizeHuman)
		if dev.Model != "" {
			label += " (" + dev.Model + ")"
		}
		if dev.FSType != "" {
			label += " [" + dev.FSType + "]"
		}
		opts = append(opts, huh.NewOption(label, dev.Path))
	}
	return opts
}

// InterfaceAddrs returns the machine's non-loopback IPv4 addresses as
// select options, for choosing the address clients will connect to.
var interfaceAddrs = net.InterfaceAddrs

// ServerIPOptions lists candidate server addresses from the host's
// network interfaces.
func ServerIPOptions() []huh.Option[string] {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil
	}
	var opts []huh.Option[string]
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		opts = append(opts, huh.NewOption(ip.String(), ip.String()))
	}
	return opts
}
