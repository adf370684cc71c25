package orchestration

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PhaseError reports which phase failed and what had already been
// changed on the machine when it did. There is no rollback: formatting
// is irreversible, and silently undoing mounts would risk further data
// loss, so the operator decides what to do with the listed mutations.
type PhaseError struct {
	Phase     string
	Mutations []string
	Err       error
}

func (e *PhaseError) Error() string {
	if len(e.Mutations) == 0 {
		return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s phase failed: %v (completed mutations: %s)",
		e.Phase, e.Err, strings.Join(e.Mutations, ", "))
}

func (e *PhaseError) Unwrap() error { return e.Err }

// IsPhaseError reports whether err carries phase failure context.
func IsPhaseError(err error) bool {
	var pe *PhaseError
	return errors.As(err, &pe)
}

// Phases returns the full deployment pipeline in execution order.
func Phases() []Phase {
	return []Phase{
		DiscoverPhase{},
		ValidatePhase{},
		ProvisionPhase{},
		GeneratePhase{},
		InstallPhase{},
		VerifyPhase{},
	}
}

// Run executes the deployment pipeline. Phases run strictly in
// sequence; the first failure stops the pipeline. Dry-run stops after
// validation with nothing changed on the machine. Cancellation is
// cooperative: it is checked between phases, and a phase in flight
// finishes its per-device work before the abort.
func Run(ctx *Context) error {
	return runPhases(ctx, Phases())
}

func runPhases(ctx *Context, phases []Phase) error {
	start := time.Now()

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return &PhaseError{Phase: phase.Name(), Mutations: ctx.State.Mutations, Err: err}
		}

		phaseStart := time.Now()
		ctx.Observer.Event(Event{Type: EventPhaseStarted, Phase: phase.Name(), Message: "starting"})

		if err := phase.Run(ctx); err != nil {
			ctx.Observer.Event(Event{Type: EventPhaseFailed, Phase: phase.Name(), Message: err.Error()})
			return &PhaseError{Phase: phase.Name(), Mutations: ctx.State.Mutations, Err: err}
		}

		ctx.Observer.Event(Event{
			Type:    EventPhaseCompleted,
			Phase:   phase.Name(),
			Message: fmt.Sprintf("completed in %v", time.Since(phaseStart).Round(time.Millisecond)),
		})

		if ctx.DryRun && phase.Name() == "validate" {
			ctx.Observer.Printf("dry run: plan is valid, stopping before provisioning")
			return nil
		}
	}

	ctx.Observer.Printf("deployment completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
