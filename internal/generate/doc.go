// Package generate renders the deployment artifacts for a TeamCache
// node: the MSE4 storage configuration, the VCL program, compose files,
// monitoring configuration, and systemd units.
//
// Rendering is pure: artifacts are computed in memory from the plan and
// the provisioned mounts, and the same inputs always produce the same
// bytes. Writing them to disk is the service installer's job.
package generate
