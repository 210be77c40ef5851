package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/shekhirin/pyrometer/internal/compiler"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/rangeops"
	"github.com/shekhirin/pyrometer/internal/store"
	"github.com/shekhirin/pyrometer/internal/testutil"
)

// Harness holds the per-run state of one scenario.
type Harness struct {
	program *compiler.Program
	store   *store.Store
	engine  *engine.Engine // records into store
	compare *engine.Engine // unrecorded; evaluates the other side of equal/order checks
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Run executes a scenario and returns its result.
//
// Execution flow:
//  1. Compile and validate the scenario's CUE graph
//  2. Open a fresh in-memory store and write the graph snapshot
//  3. Reduce every check through an engine recording into the store
//  4. Evaluate assertions against the trace and the store
//
// Check mismatches are reported in the Result; the error return is for
// scenarios that cannot be run at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	prog, err := compiler.LoadFile(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph: %w", err)
	}
	if verrs := compiler.Validate(prog); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid graph: %w", verrs[0])
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	snap := prog.Graph.Snapshot(testutil.NewStaticIDGenerator(scenario.SnapshotID))
	if err := st.WriteSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewDeterministicClock()
	ops := rangeops.New()

	h := &Harness{
		program: prog,
		store:   st,
		engine: engine.New(snap.Graph, ops,
			engine.WithRecorder(st, snap.ID),
			engine.WithClock(clock),
			engine.WithNamer(snap.Graph.Name),
			engine.WithLogger(logger),
		),
		compare: engine.New(snap.Graph, ops, engine.WithLogger(logger)),
		clock:   clock,
		logger:  logger,
	}

	result := NewResult()
	for i, check := range scenario.Checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.runCheck(ctx, i, check, result)
	}

	actx := &AssertionContext{
		Store:      st,
		Engine:     h.compare,
		SnapshotID: snap.ID,
		Ctx:        ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) runCheck(ctx context.Context, index int, check Check, result *Result) {
	prefix := fmt.Sprintf("checks[%d] (%s)", index, check.Expr)

	x, err := h.expr(check.Expr)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		return
	}
	if len(check.Rewrite) > 0 {
		mapping, err := h.mapping(check.Rewrite)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: rewrite: %v", prefix, err))
			return
		}
		if err := h.engine.Rewrite(x, mapping); err != nil {
			result.AddError(fmt.Sprintf("%s: rewrite: %v", prefix, err))
			return
		}
	}

	mode := elem.ModeEval
	if check.Mode != "" {
		mode, _ = elem.ParseMode(check.Mode)
	}

	ev, err := h.engine.Reduce(ctx, x, mode)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		return
	}

	names := h.program.Graph.Name
	event := TraceEvent{
		Seq:     ev.Seq,
		Check:   index,
		Expr:    check.Expr,
		Mode:    mode.String(),
		Input:   elem.Format(ev.Input, names),
		Output:  elem.Format(ev.Output, names),
		Outcome: string(ev.Outcome),
		Deps:    h.depNames(x),
	}

	if check.Expect != nil && event.Output != *check.Expect {
		result.AddError(fmt.Sprintf("%s: expected %s, got %s", prefix, *check.Expect, event.Output))
	}
	if check.Outcome != "" && event.Outcome != check.Outcome {
		result.AddError(fmt.Sprintf("%s: expected outcome %s, got %s", prefix, check.Outcome, event.Outcome))
	}
	if check.Deps != nil && !slices.Equal(check.Deps, event.Deps) {
		result.AddError(fmt.Sprintf("%s: expected deps %v, got %v", prefix, check.Deps, event.Deps))
	}

	if check.EqualTo != "" {
		eq, err := h.equal(x, check.EqualTo)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: equal_to: %v", prefix, err))
		} else {
			event.Equal = &eq
			if eq != *check.Equal {
				result.AddError(fmt.Sprintf("%s: expected equal=%t against %s, got %t", prefix, *check.Equal, check.EqualTo, eq))
			}
		}
	}

	if check.OrderTo != "" {
		order, err := h.order(ctx, x, check.OrderTo)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: order_to: %v", prefix, err))
		} else {
			event.Order = order
			if order != check.Order {
				result.AddError(fmt.Sprintf("%s: expected order %s against %s, got %s", prefix, check.Order, check.OrderTo, order))
			}
		}
	}

	result.AddTrace(event)
	h.logger.Info("check completed",
		"check", index,
		"expr", check.Expr,
		"seq", ev.Seq,
		"outcome", event.Outcome,
	)
}

// expr returns a private copy of the named expression.
func (h *Harness) expr(name string) (elem.Elem, error) {
	x, ok := h.program.Expr(name)
	if !ok {
		return nil, fmt.Errorf("unknown expression %q", name)
	}
	return elem.Clone(x), nil
}

func (h *Harness) mapping(rewrite map[string]string) (map[elem.VarID]elem.VarID, error) {
	out := make(map[elem.VarID]elem.VarID, len(rewrite))
	for from, to := range rewrite {
		src, ok := h.program.Graph.Lookup(from)
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", from)
		}
		dst, ok := h.program.Graph.Lookup(to)
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", to)
		}
		out[src.ID] = dst.ID
	}
	return out, nil
}

func (h *Harness) depNames(x elem.Elem) []string {
	ids := h.engine.DependencySet(x)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = h.program.Graph.Name(id)
	}
	return names
}

func (h *Harness) equal(x elem.Elem, other string) (bool, error) {
	y, err := h.expr(other)
	if err != nil {
		return false, err
	}
	return h.compare.Equal(x, y)
}

func (h *Harness) order(ctx context.Context, x elem.Elem, other string) (string, error) {
	y, err := h.expr(other)
	if err != nil {
		return "", err
	}
	xv, err := h.compare.Evaluate(ctx, x)
	if err != nil {
		return "", err
	}
	yv, err := h.compare.Evaluate(ctx, y)
	if err != nil {
		return "", err
	}
	cmp, ok := h.compare.Order(xv, yv)
	switch {
	case !ok:
		return OrderIncomparable, nil
	case cmp < 0:
		return OrderLess, nil
	case cmp > 0:
		return OrderGreater, nil
	default:
		return OrderEqual, nil
	}
}
