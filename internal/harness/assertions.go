package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s (%s)\n", event.Seq, event.Mode, event.Input, event.Output, event.Outcome)
		}
	}

	return buf.String()
}

// AssertionContext gives assertions access to the run's evaluation log.
type AssertionContext struct {
	Store      *store.Store
	Engine     *engine.Engine
	SnapshotID string
	Ctx        context.Context
}

// EvaluateAssertions runs every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcomeCount:
			err = assertOutcomeCount(result.Trace, a)
		case AssertRecordedCount:
			err = assertRecordedCount(actx, a)
		case AssertReplayClean:
			err = assertReplayClean(actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Outcome == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%d %s checks", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d %s checks", count, a.Outcome),
			Trace:    trace,
		}
	}
	return nil
}

func assertRecordedCount(actx *AssertionContext, a Assertion) error {
	evals, err := actx.Store.ReadEvaluations(actx.Ctx, actx.SnapshotID)
	if err != nil {
		return fmt.Errorf("read evaluations: %w", err)
	}
	if len(evals) != a.Count {
		return &AssertionError{
			Type:     AssertRecordedCount,
			Expected: fmt.Sprintf("%d recorded evaluations", a.Count),
			Actual:   fmt.Sprintf("%d recorded evaluations", len(evals)),
		}
	}
	return nil
}

func assertReplayClean(actx *AssertionContext) error {
	evals, err := actx.Store.ReadEvaluations(actx.Ctx, actx.SnapshotID)
	if err != nil {
		return fmt.Errorf("read evaluations: %w", err)
	}
	res, err := actx.Engine.Replay(actx.Ctx, evals)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if !res.OK() {
		first := res.Mismatches[0]
		return &AssertionError{
			Type:     AssertReplayClean,
			Expected: fmt.Sprintf("%d evaluations replay identically", res.Checked),
			Actual:   fmt.Sprintf("%d mismatches, first at seq %d", len(res.Mismatches), first.Seq),
		}
	}
	return nil
}
