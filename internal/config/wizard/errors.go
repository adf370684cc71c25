package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errDevicesRequired   = errors.New("at least one cache device must be selected")
	errServerIPRequired  = errors.New("server IP is required")
	errServerIPInvalid   = errors.New("not a valid IP address")
	errPasswordRequired  = errors.New("password is required when monitoring is enabled")
	errPasswordTooShort  = errors.New("password must be at least 8 characters")
	errPasswordMismatch  = errors.New("passwords do not match")
	errNoEligibleDevices = errors.New("no eligible cache devices found (need unmounted disks of at least 10G)")
)
