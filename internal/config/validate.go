package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/lucidlink/teamcache/internal/inventory"
)

// Violation codes. Tests and automation match on these rather than on
// message text.
type ViolationCode string

const (
	DeviceNotFound       ViolationCode = "DeviceNotFound"
	DeviceAlreadyMounted ViolationCode = "DeviceAlreadyMounted"
	DeviceTooSmall       ViolationCode = "DeviceTooSmall"
	FilesystemMismatch   ViolationCode = "FilesystemMismatch"
	ConfirmationRequired ViolationCode = "ConfirmationRequired"
	InvalidField         ViolationCode = "InvalidField"
	MissingField         ViolationCode = "MissingField"
)

// Violation is one validation failure or warning.
type Violation struct {
	Code     ViolationCode
	Field    string // plan field or device path
	Message  string
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Field, v.Message)
}

// IsError returns true when the violation blocks execution.
func (v Violation) IsError() bool { return v.Severity == "error" }

// ValidationResult aggregates every violation found in one pass, so a
// caller can fix all problems at once instead of replaying the plan per
// error.
type ValidationResult struct {
	Violations []Violation
}

// OK reports whether the plan may proceed (warnings do not block).
func (r ValidationResult) OK() bool {
	for _, v := range r.Violations {
		if v.IsError() {
			return false
		}
	}
	return true
}

// Errors returns only blocking violations.
func (r ValidationResult) Errors() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.IsError() {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns only non-blocking violations.
func (r ValidationResult) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if !v.IsError() {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether the result contains a violation with the given code.
func (r ValidationResult) Has(code ViolationCode) bool {
	for _, v := range r.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Err folds blocking violations into a single error, or nil when the plan
// is valid. The message lists every violation.
func (r ValidationResult) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, v := range errs {
		msgs[i] = v.Error()
	}
	return fmt.Errorf("plan validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// Validate checks the whole plan against live device state and returns
// every violation found. It has no side effects and its result is
// identical whether or not the run is a dry run.
func Validate(ctx context.Context, plan Plan, inv inventory.Inventory) ValidationResult {
	var out ValidationResult

	out.Violations = append(out.Violations, validateFields(plan)...)
	out.Violations = append(out.Violations, validateDevices(ctx, plan, inv)...)

	// The license file is required by the engine at start, not by the
	// deployer; its absence is survivable and therefore a warning
	// (the installed service will fail to start without it).
	if _, err := os.Stat(plan.LicenseFile); err != nil {
		out.Violations = append(out.Violations, Violation{
			Code:     MissingField,
			Field:    "LICENSE_FILE",
			Message:  fmt.Sprintf("license file not found: %s (service will not start without a valid license)", plan.LicenseFile),
			Severity: "warning",
		})
	}

	return out
}

func validateFields(plan Plan) []Violation {
	var errs []Violation

	fail := func(code ViolationCode, field, msg string) {
		errs = append(errs, Violation{Code: code, Field: field, Message: msg, Severity: "error"})
	}

	switch plan.DeploymentMode {
	case ModeDocker, ModeHybrid:
	default:
		fail(InvalidField, "DEPLOYMENT_MODE",
			fmt.Sprintf("must be %q or %q, got %q", ModeDocker, ModeHybrid, plan.DeploymentMode))
	}

	switch plan.DeviceMode {
	case DeviceModeFormat, DeviceModeReuse:
	default:
		fail(InvalidField, "DEVICE_MODE",
			fmt.Sprintf("must be %q or %q, got %q", DeviceModeFormat, DeviceModeReuse, plan.DeviceMode))
	}

	if len(plan.Devices) == 0 {
		fail(MissingField, "DEVICES", "at least one device path is required")
	}
	seen := make(map[string]bool)
	for _, d := range plan.Devices {
		if seen[d] {
			fail(InvalidField, "DEVICES", fmt.Sprintf("device %s listed more than once", d))
		}
		seen[d] = true
	}

	if plan.ServerIP == "" {
		fail(MissingField, "SERVER_IP", "server IP is required")
	} else if net.ParseIP(plan.ServerIP) == nil {
		fail(InvalidField, "SERVER_IP", fmt.Sprintf("not a valid IP address: %q", plan.ServerIP))
	}

	if plan.Port < 1 || plan.Port > 65535 {
		fail(InvalidField, "VARNISH_PORT", fmt.Sprintf("port must be 1-65535, got %d", plan.Port))
	}

	if plan.Monitoring && plan.GrafanaPassword == "" {
		fail(MissingField, "GRAFANA_PASSWORD", "required when monitoring is enabled")
	}

	// The one safety gate in the system: formatting without an explicit
	// confirmation is rejected before anything touches a device. Never
	// downgraded to reuse.
	if plan.DeviceMode == DeviceModeFormat && !plan.AutoConfirm {
		fail(ConfirmationRequired, "AUTO_CONFIRM",
			"DEVICE_MODE=format erases all data on the selected devices and requires AUTO_CONFIRM=true")
	}

	return errs
}

func validateDevices(ctx context.Context, plan Plan, inv inventory.Inventory) []Violation {
	var errs []Violation

	for i, path := range plan.Devices {
		dev, err := inv.Describe(ctx, path)
		if err != nil {
			code := InvalidField
			msg := err.Error()
			if errors.Is(err, inventory.ErrDeviceNotFound) {
				code = DeviceNotFound
				msg = "device not found"
			}
			errs = append(errs, Violation{Code: code, Field: path, Message: msg, Severity: "error"})
			continue
		}

		// A device already sitting at its own assigned cache mount point
		// is a previous run's work, not a conflict; re-runs must
		// converge instead of rejecting their own state.
		if dev.Mounted && dev.MountPoint != MountPoint(i+1) {
			errs = append(errs, Violation{
				Code:     DeviceAlreadyMounted,
				Field:    path,
				Message:  fmt.Sprintf("already mounted at %s", dev.MountPoint),
				Severity: "error",
			})
		}
		if dev.Size < inventory.MinDeviceSize {
			errs = append(errs, Violation{
				Code:     DeviceTooSmall,
				Field:    path,
				Message:  fmt.Sprintf("device is %s, minimum is 10G", dev.SizeHuman),
				Severity: "error",
			})
		}
		if plan.DeviceMode == DeviceModeReuse && dev.FSType != CacheFilesystem {
			found := dev.FSType
			if found == "" {
				found = "none"
			}
			errs = append(errs, Violation{
				Code:     FilesystemMismatch,
				Field:    path,
				Message:  fmt.Sprintf("reuse requires an existing %s filesystem, found %s", CacheFilesystem, found),
				Severity: "error",
			})
		}
	}

	return errs
}
