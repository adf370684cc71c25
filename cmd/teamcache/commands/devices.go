package commands

import (
	"github.com/spf13/cobra"

	"github.com/lucidlink/teamcache/cmd/teamcache/handlers"
)

// Devices returns the command for listing block devices on this machine.
func Devices() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List block devices available for cache storage",
		Long: `List the block devices on this machine.

By default only devices eligible as cache storage are shown: whole
disks of at least 10 GiB that are not mounted outside the cache
hierarchy. Pass --all to include ineligible devices with the reason
they were excluded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Devices(cmd.Context(), all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include ineligible devices")

	return cmd
}
