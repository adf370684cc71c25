package commands

import (
	"github.com/spf13/cobra"

	"github.com/lucidlink/teamcache/cmd/teamcache/handlers"
)

// Verify returns the command for checking an existing deployment.
func Verify() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the health of a deployed cache node",
		Long: `Check the health of an already deployed TeamCache node.

This runs the same verification as the final deploy phase: each
installed systemd unit must be active and stay active through a settle
window, and the cache endpoint must respond to HTTP.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to deploy file (default: .env)")

	return cmd
}
