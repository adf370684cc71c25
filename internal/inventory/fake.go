package inventory

import (
	"context"
	"fmt"
)

// Fake is an in-memory Inventory for tests and dry-run previews in
// environments without real devices.
type Fake struct {
	Devices []BlockDevice

	// ListErr forces List/Describe to fail, simulating lsblk breakage.
	ListErr error

	listCalls int
}

// NewFake builds a fake inventory over the given devices.
func NewFake(devices ...BlockDevice) *Fake {
	return &Fake{Devices: devices}
}

// List implements Inventory.
func (f *Fake) List(_ context.Context) ([]BlockDevice, error) {
	f.listCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]BlockDevice, len(f.Devices))
	copy(out, f.Devices)
	return out, nil
}

// Describe implements Inventory.
func (f *Fake) Describe(_ context.Context, path string) (BlockDevice, error) {
	if f.ListErr != nil {
		return BlockDevice{}, f.ListErr
	}
	for _, d := range f.Devices {
		if d.Path == path {
			return d, nil
		}
	}
	return BlockDevice{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
}

// ListCalls reports how many times List ran; used to assert live re-query.
func (f *Fake) ListCalls() int { return f.listCalls }
