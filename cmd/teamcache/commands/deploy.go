package commands

import (
	"github.com/spf13/cobra"

	"github.com/lucidlink/teamcache/cmd/teamcache/handlers"
)

// Deploy returns the command for provisioning a TeamCache node from a
// deploy file.
//
// Flags:
//
//	--config, -c: Path to the deploy file (default ".env")
//	--dry-run: Stop after validation, mutate nothing
//	--plain: Disable the TUI and log progress line by line
//	--verbose, -v: Enable debug logging
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision the cache node from a deploy file",
		Long: `Provision a TeamCache node.

This command discovers the cache devices named in the deploy file,
validates the plan against the live machine, formats or reuses the
devices, generates the Varnish Enterprise and MSE4 configuration,
installs the systemd services, and verifies the deployment.

Re-running deploy on an already provisioned node converges: devices
already mounted at their cache mount points are left alone and the
configuration is regenerated in place.

Examples:
  # Deploy using .env in the current directory
  teamcache deploy

  # Deploy using a specific deploy file
  teamcache deploy -c node1.env

  # Validate without touching the machine
  teamcache deploy --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to deploy file (default: .env)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Stop after validation, mutate nothing")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Disable the TUI, log progress line by line")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
