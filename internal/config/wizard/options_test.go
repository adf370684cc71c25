package wizard

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/teamcache/internal/inventory"
)

func TestDevicesToOptions(t *testing.T) {
	const gib = 1024 * 1024 * 1024

	devices := []inventory.BlockDevice{
		{Path: "/dev/sdb", Size: 100 * gib, SizeHuman: "100G", Model: "Samsung SSD"},
		{Path: "/dev/sdc", Size: 200 * gib, SizeHuman: "200G", FSType: "xfs"},
		{Path: "/dev/sdd", Size: 4 * gib, SizeHuman: "4G"},                     // too small
		{Path: "/dev/sda", Size: 500 * gib, SizeHuman: "500G", Mounted: true}, // system disk
	}

	opts := DevicesToOptions(devices)

	require.Len(t, opts, 2, "ineligible devices must not be offered")
	assert.Equal(t, "/dev/sdb", opts[0].Value)
	assert.Contains(t, opts[0].Key, "Samsung SSD")
	assert.Equal(t, "/dev/sdc", opts[1].Value)
	assert.Contains(t, opts[1].Key, "[xfs]")
}

func TestDevicesToOptionsEmpty(t *testing.T) {
	assert.Empty(t, DevicesToOptions(nil))
}

func TestServerIPOptions(t *testing.T) {
	orig := interfaceAddrs
	defer func() { interfaceAddrs = orig }()

	interfaceAddrs = func() ([]net.Addr, error) {
		return []net.Addr{
			&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
			&net.IPNet{IP: net.ParseIP("192.168.1.10"), Mask: net.CIDRMask(24, 32)},
			&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		}, nil
	}

	opts := ServerIPOptions()

	require.Len(t, opts, 1, "loopback and IPv6 addresses are skipped")
	assert.Equal(t, "192.168.1.10", opts[0].Value)
}
