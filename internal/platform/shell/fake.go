package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is a scriptable Runner for tests. Responses are matched by
// command prefix; every invocation is recorded for assertions.
type FakeRunner struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []string
}

type fakeResponse struct {
	prefix string
	output string
	err    error
	// remaining < 0 means unlimited
	remaining int
}

// NewFakeRunner returns an empty fake. Commands without a scripted
// response succeed with empty output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Respond registers output for every command whose line starts with prefix.
func (f *FakeRunner) Respond(prefix, output string) *FakeRunner {
	return f.respond(prefix, output, nil, -1)
}

// RespondOnce registers output consumed by a single matching call, allowing
// state transitions to be scripted (e.g. inactive then active).
func (f *FakeRunner) RespondOnce(prefix, output string) *FakeRunner {
	return f.respond(prefix, output, nil, 1)
}

// Fail registers an error for every command whose line starts with prefix.
func (f *FakeRunner) Fail(prefix string, err error) *FakeRunner {
	return f.respond(prefix, "", err, -1)
}

func (f *FakeRunner) respond(prefix, output string, err error, n int) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, output: output, err: err, remaining: n})
	return f
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line := name
	if len(args) > 0 {
		line = name + " " + strings.Join(args, " ")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, line)

	for i := range f.responses {
		r := &f.responses[i]
		if r.remaining == 0 {
			continue
		}
		if strings.HasPrefix(line, r.prefix) {
			if r.remaining > 0 {
				r.remaining--
			}
			if r.err != nil {
				return r.output, fmt.Errorf("command %s failed: %w", line, r.err)
			}
			return r.output, nil
		}
	}
	return "", nil
}

// Calls returns the command lines executed so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsMatching returns recorded command lines that start with prefix.
func (f *FakeRunner) CallsMatching(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
