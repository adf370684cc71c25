package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lucidlink/teamcache/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WritePlan writes the plan to a deployment file with a descriptive
// header. The file is the single input to `teamcache deploy`.
func WritePlan(plan config.Plan, outputPath string) error {
	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath))
	sb.WriteString("\n")
	sb.WriteString(renderPlan(plan))

	// 0600: the file carries the Grafana password.
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write deploy file: %w", err)
	}
	return nil
}

// renderPlan serializes the plan as KEY=value lines in a stable order.
func renderPlan(plan config.Plan) string {
	var sb strings.Builder
	write := func(key, value string) {
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	write("DEPLOYMENT_MODE", plan.DeploymentMode)
	write("DEVICES", strings.Join(plan.Devices, ","))
	write("DEVICE_MODE", plan.DeviceMode)
	write("SERVER_IP", plan.ServerIP)
	write("VARNISH_PORT", fmt.Sprintf("%d", plan.Port))
	write("ENABLE_MONITORING", formatBool(plan.Monitoring))
	if plan.Monitoring {
		write("GRAFANA_PASSWORD", plan.GrafanaPassword)
	}
	write("LICENSE_FILE", plan.LicenseFile)
	write("AUTO_CONFIRM", formatBool(plan.AutoConfirm))

	return sb.String()
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// generateHeader creates the deploy file header comment.
func generateHeader(outputPath string) string {
	return fmt.Sprintf(`# TeamCache deployment configuration
# Generated by: teamcache setup
# Generated at: %s
#
# Usage:
#   teamcache deploy --config %s
#
# Run with --dry-run first to preview the deployment plan.
`, time.Now().Format(time.RFC3339), outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
