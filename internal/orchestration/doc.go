// Package orchestration drives a deployment through its phases:
// discover, validate, provision, generate, install, verify. Phases run
// strictly in order, each one reading and extending the shared State;
// the first failure stops the pipeline and reports which mutations had
// already completed. Dry-run executes discovery and validation only.
package orchestration
