// Package verify checks that a deployed cache node is actually healthy:
// units settled into a running state and the HTTP listener responding.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/generate"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

// Defaults for the health check loop.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 1 * time.Second
	DefaultSettleDelay  = 2 * time.Second
)

// Result is the health outcome for one systemd unit.
type Result struct {
	Unit    string
	State   string
	Healthy bool
	Detail  string
}

// EndpointResult is the outcome of probing the cache listener.
type EndpointResult struct {
	URL        string
	StatusCode int
	Responding bool
	Detail     string
}

// Report aggregates the verification of a deployment.
type Report struct {
	Units    []Result
	Endpoint *EndpointResult
}

// Healthy reports whether every unit settled and the endpoint (when
// probed) responded.
func (r Report) Healthy() bool {
	for _, u := range r.Units {
		if !u.Healthy {
			return false
		}
	}
	if r.Endpoint != nil && !r.Endpoint.Responding {
		return false
	}
	return len(r.Units) > 0
}

// Verifier checks deployed units and the cache endpoint.
type Verifier struct {
	runner       shell.Runner
	log          zerolog.Logger
	timeout      time.Duration
	pollInterval time.Duration
	settleDelay  time.Duration
	sleep        func(context.Context, time.Duration) error
	probe        func(context.Context, string) (int, error)
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimeout bounds how long a unit may take to become active.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) { v.timeout = d }
}

// WithSettleDelay sets the pause before the activation re-check.
func WithSettleDelay(d time.Duration) Option {
	return func(v *Verifier) { v.settleDelay = d }
}

// WithSleep overrides waiting, for tests.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(v *Verifier) { v.sleep = fn }
}

// WithProbe overrides the HTTP probe, for tests.
func WithProbe(fn func(context.Context, string) (int, error)) Option {
	return func(v *Verifier) { v.probe = fn }
}

// NewVerifier returns a Verifier reading unit state through runner.
func NewVerifier(runner shell.Runner, log zerolog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		runner:       runner,
		log:          log,
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		settleDelay:  DefaultSettleDelay,
		sleep:        sleepCtx,
		probe:        httpProbe,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks every unit the plan installs, then probes the listener
// when the core unit is healthy. Unhealthy outcomes are reported in the
// Report, never as an error; the error return covers only cancellation.
func (v *Verifier) Verify(ctx context.Context, plan config.Plan) (Report, error) {
	var report Report

	for _, unit := range planUnits(plan) {
		result, err := v.verifyUnit(ctx, unit)
		if err != nil {
			return report, err
		}
		report.Units = append(report.Units, result)
	}

	// Only probe when the core unit carries traffic; a dead engine makes
	// connection refused a certainty, not information.
	if len(report.Units) > 0 && report.Units[0].Healthy {
		ep := v.verifyEndpoint(ctx, plan.Endpoint())
		report.Endpoint = &ep
	}

	return report, nil
}

// verifyUnit waits for the unit to become active, then re-checks after
// the settle delay. Units that report active and then exit moments
// later (a missing license does exactly this) must come back unhealthy,
// not as a false success.
func (v *Verifier) verifyUnit(ctx context.Context, unit string) (Result, error) {
	deadline := time.Now().Add(v.timeout)

	for {
		state := v.unitState(ctx, unit)
		switch state {
		case "active":
			if err := v.sleep(ctx, v.settleDelay); err != nil {
				return Result{}, err
			}
			if settled := v.unitState(ctx, unit); settled != "active" {
				v.log.Warn().Str("unit", unit).Str("state", settled).Msg("unit exited within settle window")
				return Result{
					Unit:    unit,
					State:   settled,
					Detail:  fmt.Sprintf("became active but exited within %s", v.settleDelay),
					Healthy: false,
				}, nil
			}
			return Result{Unit: unit, State: "active", Healthy: true}, nil
		case "failed":
			return Result{Unit: unit, State: "failed", Detail: "unit entered failed state"}, nil
		}

		if time.Now().After(deadline) {
			return Result{
				Unit:   unit,
				State:  state,
				Detail: fmt.Sprintf("not active after %s", v.timeout),
			}, nil
		}
		if err := v.sleep(ctx, v.pollInterval); err != nil {
			return Result{}, err
		}
	}
}

// verifyEndpoint probes the HTTP listener. Varnish answers 503 when no
// backend is configured for a request; that still proves the listener
// is up, so any HTTP status counts as responding.
func (v *Verifier) verifyEndpoint(ctx context.Context, endpoint string) EndpointResult {
	status, err := v.probe(ctx, endpoint)
	if err != nil {
		return EndpointResult{URL: endpoint, Detail: err.Error()}
	}
	detail := ""
	if status == http.StatusServiceUnavailable {
		detail = "503 without a backend is expected from an idle cache"
	}
	return EndpointResult{URL: endpoint, StatusCode: status, Responding: true, Detail: detail}
}

func (v *Verifier) unitState(ctx context.Context, unit string) string {
	// is-active exits non-zero for anything but active and prints the
	// state either way.
	out, _ := v.runner.Run(ctx, "systemctl", "is-active", unit)
	state := strings.TrimSpace(out)
	if state == "" {
		state = "unknown"
	}
	return state
}

// planUnits lists the units a plan installs, core unit first.
func planUnits(plan config.Plan) []string {
	units := []string{generate.CacheUnit}
	if plan.Monitoring && plan.DeploymentMode == config.ModeHybrid {
		units = append(units, generate.MonitoringUnit)
	}
	return units
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func httpProbe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
