// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the teamcache CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teamcache",
		Short: "Provision and manage a LucidLink TeamCache node",
	}

	// Core commands
	cmd.AddCommand(Setup())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Devices())
	cmd.AddCommand(Verify())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
