// Package config defines the deployment plan, the declarative deploy-file
// loader, and plan validation.
//
// A Plan is built exactly once per run, either by the interactive wizard or
// from a deploy file, and is never mutated by later phases. The orchestrator
// core only ever sees the Plan; it has no dependency on how it was built.
package config

import "fmt"

// Deployment modes. Mutually exclusive.
const (
	ModeDocker = "docker" // everything in one compose stack
	ModeHybrid = "hybrid" // native varnishd plus optional containerized monitoring
)

// Device preparation modes.
const (
	DeviceModeFormat = "format" // wipe and create a fresh XFS filesystem
	DeviceModeReuse  = "reuse"  // mount the existing XFS filesystem as-is
)

// CacheFilesystem is the only filesystem the storage engine is qualified on.
const CacheFilesystem = "xfs"

// Defaults applied by Load and the wizard.
const (
	DefaultPort        = 80
	DefaultLicenseFile = "./varnish-enterprise.lic"
)

// Plan is a fully specified description of one deployment intent.
// Treat as immutable once constructed.
type Plan struct {
	DeploymentMode string
	Devices        []string // ordered; ordinal determines mount points
	DeviceMode     string

	ServerIP string
	Port     int

	Monitoring      bool
	GrafanaPassword string

	LicenseFile string

	// AutoConfirm is the explicit opt-in for destructive device
	// formatting. Never defaulted to true anywhere.
	AutoConfirm bool
}

// NewPlan returns a Plan carrying only defaults. Callers fill it in and
// then hand it to Validate before anything mutating runs.
func NewPlan() Plan {
	return Plan{
		DeploymentMode: ModeHybrid,
		DeviceMode:     DeviceModeFormat,
		Port:           DefaultPort,
		Monitoring:     true,
		LicenseFile:    DefaultLicenseFile,
	}
}

// MountPoint returns the cache mount point for the i-th device of the plan
// (1-based ordinal, stable by plan order).
func MountPoint(ordinal int) string {
	return fmt.Sprintf("/cache/disk%d", ordinal)
}

// Endpoint returns the cache endpoint URL the plan will expose.
func (p Plan) Endpoint() string {
	return fmt.Sprintf("http://%s:%d", p.ServerIP, p.Port)
}
