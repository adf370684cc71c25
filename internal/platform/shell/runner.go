// Package shell runs external system commands with explicit timeouts.
//
// Every mutating operation the deployer performs (mkfs, mount, systemctl)
// goes through the Runner interface so that handlers and phases can be
// tested against a recording fake without touching the host.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external command. Filesystem creation on
// large devices is the slowest operation we issue.
const DefaultTimeout = 5 * time.Minute

// Runner executes a named command with arguments and returns its combined
// output. Implementations must honor context cancellation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	// Timeout applies per command when the caller's context has no
	// earlier deadline. Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewExecRunner returns a Runner with the default per-command timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: DefaultTimeout}
}

// Run executes the command and returns trimmed combined output.
// A non-zero exit is returned as an error carrying the command line and
// whatever the command printed, so phase errors are diagnosable.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	output := strings.TrimRight(string(out), "\n")
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return output, fmt.Errorf("command %s %s timed out after %s", name, strings.Join(args, " "), timeout)
		}
		return output, fmt.Errorf("command %s %s failed: %w (output: %s)", name, strings.Join(args, " "), err, output)
	}
	return output, nil
}
