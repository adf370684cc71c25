package commands

import (
	"github.com/spf13/cobra"

	"github.com/lucidlink/teamcache/cmd/teamcache/handlers"
)

// Setup returns the command for interactively creating a deploy file.
//
// This command guides the operator through configuring a TeamCache node
// step by step using an interactive wizard, then optionally runs the
// deployment straight away.
//
// Flags:
//
//	--output, -o: Path to the deploy file to write (default ".env")
//	--deploy: Run the deployment immediately after the wizard
//	--verbose, -v: Enable debug logging
func Setup() *cobra.Command {
	var (
		outputPath string
		deploy     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactively create a deploy file",
		Long: `Interactively create a TeamCache deploy file.

This command guides you through configuring your cache node
step by step. It will ask about:

  - Deployment mode (docker or hybrid)
  - Cache storage devices and how to prepare them
  - The server IP and cache port
  - Grafana monitoring
  - The Varnish Enterprise license file

The answers are written to a deploy file that 'teamcache deploy'
consumes. Pass --deploy to run the deployment straight away.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Setup(cmd.Context(), outputPath, deploy, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", handlers.DefaultDeployFile, "Deploy file to write")
	cmd.Flags().BoolVar(&deploy, "deploy", false, "Run the deployment after the wizard")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
