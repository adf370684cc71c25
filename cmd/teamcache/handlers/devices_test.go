package handlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/teamcache/internal/inventory"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

func testDevices() []inventory.BlockDevice {
	return []inventory.BlockDevice{
		{Path: "/dev/sdb", Size: 100 << 30, SizeHuman: "100G", Model: "Samsung SSD"},
		{Path: "/dev/sdc", Size: 4 << 30, SizeHuman: "4G"},
		{Path: "/dev/sdd", Size: 50 << 30, SizeHuman: "50G", FSType: "ext4", Mounted: true, MountPoint: "/data"},
	}
}

func TestDevicesListsEligibleOnly(t *testing.T) {
	saveAndRestoreFactories(t)

	newRunner = func() shell.Runner { return shell.NewFakeRunner() }
	newInventory = func(shell.Runner) inventory.Inventory { return inventory.NewFake(testDevices()...) }

	var buf bytes.Buffer
	devicesOut = &buf

	require.NoError(t, Devices(context.Background(), false))

	out := buf.String()
	assert.Contains(t, out, "/dev/sdb")
	assert.NotContains(t, out, "/dev/sdc")
	assert.NotContains(t, out, "/dev/sdd")
}

func TestDevicesAllIncludesReasons(t *testing.T) {
	saveAndRestoreFactories(t)

	newRunner = func() shell.Runner { return shell.NewFakeRunner() }
	newInventory = func(shell.Runner) inventory.Inventory { return inventory.NewFake(testDevices()...) }

	var buf bytes.Buffer
	devicesOut = &buf

	require.NoError(t, Devices(context.Background(), true))

	out := buf.String()
	assert.Contains(t, out, "too small")
	assert.Contains(t, out, "mounted at /data")
	assert.Contains(t, out, "eligible")
}

func TestDevicesListFailure(t *testing.T) {
	saveAndRestoreFactories(t)

	newRunner = func() shell.Runner { return shell.NewFakeRunner() }
	newInventory = func(shell.Runner) inventory.Inventory {
		return &inventory.Fake{ListErr: assert.AnError}
	}

	err := Devices(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device discovery failed")
}
