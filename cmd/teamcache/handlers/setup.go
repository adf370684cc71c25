package handlers

import (
	"context"
	"fmt"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/config/wizard"
	"github.com/lucidlink/teamcache/internal/inventory"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

// Factory function variables for setup - can be replaced in tests.
var (
	// runWizard runs the interactive setup wizard.
	runWizard = wizard.RunWizard

	// writePlan writes the plan to a deploy file.
	writePlan = wizard.WritePlan

	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before replacing an existing deploy file.
	confirmOverwrite = wizard.ConfirmOverwrite

	// newInventory creates the device inventory the wizard lists from.
	newInventory = func(runner shell.Runner) inventory.Inventory {
		return inventory.New(runner)
	}

	// runDeploy runs the deployment after the wizard.
	runDeploy = Deploy
)

// Setup runs the interactive wizard and writes the resulting deploy
// file. With deploy set the deployment runs immediately afterwards.
func Setup(ctx context.Context, outputPath string, deploy, verbose bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Keeping the existing deploy file.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx, newInventory(newRunner()))
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	plan := wizard.BuildPlan(result)

	if err := writePlan(plan, outputPath); err != nil {
		return fmt.Errorf("failed to write deploy file: %w", err)
	}

	printSetupSuccess(outputPath, plan)

	if deploy {
		return runDeploy(ctx, DeployOptions{ConfigPath: outputPath, Verbose: verbose})
	}
	return nil
}

// printWelcome prints the wizard welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("teamcache - LucidLink TeamCache setup")
	fmt.Println("=====================================")
	fmt.Println()
	fmt.Println("This wizard configures a cache node step by step and writes")
	fmt.Println("a deploy file you can review before deploying.")
	fmt.Println()
}

// printSetupSuccess prints the summary and next steps.
func printSetupSuccess(outputPath string, plan config.Plan) {
	fmt.Println()
	fmt.Println("Deploy file saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Node Summary")
	fmt.Println("------------")
	fmt.Printf("  Mode:       %s\n", plan.DeploymentMode)
	fmt.Printf("  Devices:    %d (%s)\n", len(plan.Devices), plan.DeviceMode)
	fmt.Printf("  Endpoint:   %s\n", plan.Endpoint())
	fmt.Printf("  Monitoring: %t\n", plan.Monitoring)
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Printf("  1. Review %s if needed\n", outputPath)
	fmt.Println()
	fmt.Println("  2. Deploy the node:")
	fmt.Printf("     teamcache deploy -c %s\n", outputPath)
	fmt.Println()
}
