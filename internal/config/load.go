package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultConfigFilename is the deploy file looked up when no --config flag
// is given.
const DefaultConfigFilename = ".env"

// Recognized deploy-file keys. Unknown keys are rejected so that a typo
// like DEVICE= instead of DEVICES= fails loudly instead of deploying with
// defaults.
var knownKeys = map[string]bool{
	"DEPLOYMENT_MODE":   true,
	"DEVICES":           true,
	"DEVICE_MODE":       true,
	"SERVER_IP":         true,
	"VARNISH_PORT":      true,
	"ENABLE_MONITORING": true,
	"GRAFANA_PASSWORD":  true,
	"LICENSE_FILE":      true,
	"AUTO_CONFIRM":      true,
}

// Load reads a flat key/value deploy file into a Plan. Values are not
// validated here beyond basic typing; Validate owns semantic checks so
// that the wizard and the file loader share one validation path.
func Load(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read deploy file: %w", err)
	}
	defer f.Close()

	return parse(f.Name(), bufio.NewScanner(f))
}

func parse(name string, scanner *bufio.Scanner) (Plan, error) {
	plan := NewPlan()
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Plan{}, fmt.Errorf("%s:%d: expected KEY=value, got %q", name, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !knownKeys[key] {
			return Plan{}, fmt.Errorf("%s:%d: unknown key %q", name, lineNo, key)
		}

		if err := apply(&plan, key, value); err != nil {
			return Plan{}, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Plan{}, fmt.Errorf("failed to read deploy file: %w", err)
	}
	return plan, nil
}

func apply(plan *Plan, key, value string) error {
	switch key {
	case "DEPLOYMENT_MODE":
		plan.DeploymentMode = strings.ToLower(value)
	case "DEVICES":
		plan.Devices = splitList(value)
	case "DEVICE_MODE":
		plan.DeviceMode = strings.ToLower(value)
	case "SERVER_IP":
		plan.ServerIP = value
	case "VARNISH_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("VARNISH_PORT must be a number, got %q", value)
		}
		plan.Port = port
	case "ENABLE_MONITORING":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("ENABLE_MONITORING: %w", err)
		}
		plan.Monitoring = b
	case "GRAFANA_PASSWORD":
		plan.GrafanaPassword = value
	case "LICENSE_FILE":
		plan.LicenseFile = value
	case "AUTO_CONFIRM":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("AUTO_CONFIRM: %w", err)
		}
		plan.AutoConfirm = b
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", value)
}
