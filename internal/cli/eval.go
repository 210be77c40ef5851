package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/compiler"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/graph"
	"github.com/shekhirin/pyrometer/internal/rangeops"
	"github.com/shekhirin/pyrometer/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Exprs      []string
	Simplify   bool
	Database   string
	SnapshotID string
	MaxLookups int
}

// EvalEntry is the reduction of one named expression.
type EvalEntry struct {
	Name    string `json:"name"`
	Seq     int64  `json:"seq"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	Outcome string `json:"outcome"`
}

// EvalResult lists every reduced expression.
type EvalResult struct {
	Mode       string      `json:"mode"`
	SnapshotID string      `json:"snapshot_id,omitempty"`
	Results    []EvalEntry `json:"results"`
}

// Text renders the result for terminals.
func (r *EvalResult) Text() string {
	var b strings.Builder
	for _, e := range r.Results {
		fmt.Fprintf(&b, "%s: %s => %s (%s)\n", e.Name, e.Input, e.Output, e.Outcome)
	}
	if r.SnapshotID != "" {
		fmt.Fprintf(&b, "recorded under snapshot %s\n", r.SnapshotID)
	}
	return b.String()
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <graph>",
		Short: "Evaluate the named expressions of a graph",
		Long: `Reduce each named expression of a graph as far as concrete bounds allow.
Expressions that depend on unresolved variables are printed in their
reduced symbolic form.

With --simplify, references to symbolic variables are kept as references
instead of being replaced by their bounds.

With --db, the graph is stored as a snapshot and every evaluation is
recorded so that it can later be checked with 'pyrometer replay'.

Examples:
  pyrometer eval graph.cue
  pyrometer eval graph.cue --expr sum --expr capped
  pyrometer eval graph.cue --simplify --format json
  pyrometer eval graph.cue --db ./pyrometer.db --snapshot release-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Exprs, "expr", nil, "expression to evaluate (repeatable; default all)")
	cmd.Flags().BoolVar(&opts.Simplify, "simplify", false, "keep symbolic variables as references")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the snapshot and evaluations in this SQLite database")
	cmd.Flags().StringVar(&opts.SnapshotID, "snapshot", "", "snapshot id to record under (default: new UUIDv7)")
	cmd.Flags().IntVar(&opts.MaxLookups, "max-lookups", engine.DefaultMaxLookups, "variable lookups allowed per evaluation (0 = unlimited)")

	return cmd
}

func runEval(ctx context.Context, opts *EvalOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)
	logger := f.Logger()

	prog, err := loadCheckedGraph(path)
	if err != nil {
		return fail(f, err)
	}
	names, err := selectExprs(prog, opts.Exprs)
	if err != nil {
		return fail(f, err)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithNamer(prog.Graph.Name),
		engine.WithMaxLookups(opts.MaxLookups),
	}

	var snapshotID string
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return failDB(f, ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		var gen graph.IDGenerator
		if opts.SnapshotID != "" {
			gen = graph.NewFixedGenerator(opts.SnapshotID)
		}
		snap := prog.Graph.Snapshot(gen)
		if err := st.WriteSnapshot(ctx, snap); err != nil {
			return failDB(f, ExitCommandError, "failed to write snapshot", err)
		}
		snapshotID = snap.ID

		// Continue numbering after records left by earlier runs.
		last, err := st.LastSeq(ctx, snap.ID)
		if err != nil {
			return failDB(f, ExitCommandError, "failed to read evaluations", err)
		}
		engineOpts = append(engineOpts,
			engine.WithRecorder(st, snap.ID),
			engine.WithClock(engine.NewClockAt(last)),
		)
		logger.Info("recording evaluations", "db", opts.Database, "snapshot", snap.ID)
	}

	mode := elem.ModeEval
	if opts.Simplify {
		mode = elem.ModeSimplify
	}

	eng := engine.New(prog.Graph, rangeops.New(), engineOpts...)
	result := &EvalResult{Mode: mode.String(), SnapshotID: snapshotID, Results: make([]EvalEntry, 0, len(names))}
	for _, name := range names {
		ev, err := eng.Reduce(ctx, prog.Exprs[name], mode)
		if err != nil {
			return fail(f, WrapExitError(ExitFailure, fmt.Sprintf("evaluate %s", name), err))
		}
		result.Results = append(result.Results, EvalEntry{
			Name:    name,
			Seq:     ev.Seq,
			Input:   elem.Format(ev.Input, prog.Graph.Name),
			Output:  elem.Format(ev.Output, prog.Graph.Name),
			Outcome: string(ev.Outcome),
		})
	}

	return f.Success(result)
}

// loadCheckedGraph loads a graph and rejects it when validation finds
// problems.
func loadCheckedGraph(path string) (*compiler.Program, error) {
	prog, err := loadGraph(path)
	if err != nil {
		return nil, err
	}
	if verrs := compiler.Validate(prog); len(verrs) > 0 {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("graph has %d validation error(s)", len(verrs)), verrs[0])
	}
	return prog, nil
}

// selectExprs returns the requested expression names, or every expression
// in declaration order when none are requested.
func selectExprs(prog *compiler.Program, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return prog.Order, nil
	}
	for _, name := range requested {
		if _, ok := prog.Expr(name); !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown expression %q", name))
		}
	}
	return requested, nil
}
