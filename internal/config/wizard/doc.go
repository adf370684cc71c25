// Package wizard provides the interactive setup wizard for teamcache.
//
// This package implements a TUI-based wizard that guides users through
// creating a deployment file. It uses charmbracelet/huh for form-based
// input collection.
//
// The main entry point is RunWizard, which orchestrates question groups
// and returns a WizardResult. Use BuildPlan to convert results to a
// config.Plan, and WritePlan to generate the deployment file.
package wizard
