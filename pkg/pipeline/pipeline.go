// Package pipeline drives the Listener -> Architect -> Theorist stage
// sequence over one decoded track, owning the shared Config, cancellation,
// progress reporting, and the error-taxonomy mapping from spec.md §7.
// Grounded on `pkg/analysis.Analyzer`/`AnalyzeFileWithPath` in the teacher:
// a struct that runs a fixed sequence of sub-analyses over one input and
// assembles a single result, aborting on a structurally invalid input but
// otherwise carrying every soft failure through as a default rather than a
// fatal error.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/beatlab/structuralmap/pkg/architect"
	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/listener"
	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/beatlab/structuralmap/pkg/theorist"
)

// InputInvalidError reports spec.md §7's InputInvalid taxonomy: a
// caller-supplied input the driver refuses to run a stage over at all.
type InputInvalidError struct {
	Reason string
}

func (e *InputInvalidError) Error() string { return "pipeline: invalid input: " + e.Reason }

// AssertionError wraps an invariant violation surfaced by a stage
// (spec.md §7's Assertion taxonomy). It is never recovered from.
type AssertionError struct {
	Stage string
	Err   error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("pipeline: assertion failed in %s stage: %v", e.Stage, e.Err)
}

func (e *AssertionError) Unwrap() error { return e.Err }

// ProgressFunc receives coarse percent-complete updates as the driver
// crosses each stage boundary.
type ProgressFunc func(percent int)

// Pipeline owns the configuration for one analysis run. It holds no
// state across calls to Run — a fresh Pipeline (or a reused one, since
// Config/ListenerConfig/KeyHint are read-only per call) is safe to share.
type Pipeline struct {
	Config         config.Config
	ListenerConfig listener.Config

	// KeyHint, if set, is the Theorist's fallback key context when the
	// Listener's own key estimate isn't confident enough (spec.md §4.3.4).
	KeyHint *theorist.KeyHint
}

// New returns a Pipeline with the given structure-detection config and the
// Listener's spec.md §3/§4.1 default signal-processing parameters.
func New(cfg config.Config) *Pipeline {
	return &Pipeline{Config: cfg, ListenerConfig: listener.DefaultConfig()}
}

// Run executes Listener -> Architect -> Theorist over pcm and returns the
// final StructuralMap. ctx is checked at each stage boundary; a cancelled
// context aborts before the next stage starts (an already-running stage
// runs to completion, matching spec.md §5's "no cancellation propagation
// below stage granularity").
func (p *Pipeline) Run(ctx context.Context, pcm model.PCMInput, progress ProgressFunc) (*model.StructuralMap, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, &InputInvalidError{Reason: err.Error()}
	}
	if len(pcm.Samples) == 0 || pcm.SampleRate <= 0 {
		return nil, &InputInvalidError{Reason: "empty samples or non-positive sample rate"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lcfg := p.ListenerConfig
	if cfg.WindowShift != 0 {
		lcfg.WindowShift = cfg.WindowShift
	}

	report(progress, 0)
	frames, beatGrid, events, meta, err := listener.Listen(pcm, lcfg)
	if err != nil {
		var inputErr *listener.InputError
		if errors.As(err, &inputErr) {
			return nil, &InputInvalidError{Reason: inputErr.Reason}
		}
		return nil, err
	}
	report(progress, 35)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sm, err := architect.Detect(frames, beatGrid, cfg)
	if err != nil {
		return nil, &AssertionError{Stage: "architect", Err: err}
	}
	report(progress, 70)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sm, err = theorist.Run(sm, frames, events, meta, p.KeyHint, cfg)
	if err != nil {
		return nil, &AssertionError{Stage: "theorist", Err: err}
	}
	report(progress, 100)

	return sm, nil
}

func report(fn ProgressFunc, percent int) {
	if fn != nil {
		fn(percent)
	}
}
