package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database   string
	SnapshotID string
	Mode       string
	Outcome    string
	Limit      int
}

// LogSnapshot is one stored snapshot.
type LogSnapshot struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	GraphHash   string `json:"graph_hash"`
	Vars        int    `json:"vars"`
	Evaluations int    `json:"evaluations"`
}

// LogEvaluation is one recorded evaluation, rendered with variable names.
type LogEvaluation struct {
	Seq      int64  `json:"seq"`
	Mode     string `json:"mode"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	Outcome  string `json:"outcome"`
	ExprHash string `json:"expr_hash"`
}

// LogResult is either the snapshot list or the evaluations of one snapshot.
type LogResult struct {
	Snapshots   []LogSnapshot   `json:"snapshots,omitempty"`
	SnapshotID  string          `json:"snapshot_id,omitempty"`
	Evaluations []LogEvaluation `json:"evaluations,omitempty"`
}

// Text renders the result for terminals.
func (r *LogResult) Text() string {
	var b strings.Builder
	if r.SnapshotID == "" {
		if len(r.Snapshots) == 0 {
			return "No snapshots found in database.\n"
		}
		for _, s := range r.Snapshots {
			fmt.Fprintf(&b, "%s  %d vars  %d evaluations  %s\n", s.ID, s.Vars, s.Evaluations, shortHash(s.GraphHash))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Snapshot: %s\n", r.SnapshotID)
	if len(r.Evaluations) == 0 {
		b.WriteString("  (no evaluations)\n")
		return b.String()
	}
	for _, ev := range r.Evaluations {
		fmt.Fprintf(&b, "  [%d] %s %s => %s (%s)\n", ev.Seq, ev.Mode, ev.Input, ev.Output, ev.Outcome)
	}
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show stored snapshots and recorded evaluations",
		Long: `Without --snapshot, list every stored snapshot in write order with its
graph hash and number of recorded evaluations.

With --snapshot, list the evaluations recorded against that snapshot in
sequence order, rendered with the snapshot's variable names. --mode,
--outcome and --limit narrow the listing.

Examples:
  pyrometer log --db ./pyrometer.db
  pyrometer log --db ./pyrometer.db --snapshot release-1
  pyrometer log --db ./pyrometer.db --snapshot release-1 --outcome symbolic
  pyrometer log --db ./pyrometer.db --snapshot release-1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SnapshotID, "snapshot", "", "show evaluations of this snapshot")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "only evaluations in this mode (eval|simplify)")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only evaluations with this outcome (resolved|symbolic|empty)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many evaluations (0 = all)")

	return cmd
}

func runLog(ctx context.Context, opts *LogOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return failDB(f, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.SnapshotID == "" {
		infos, err := st.ListSnapshots(ctx)
		if err != nil {
			return failDB(f, ExitCommandError, "failed to list snapshots", err)
		}
		result := &LogResult{Snapshots: make([]LogSnapshot, 0, len(infos))}
		for _, info := range infos {
			result.Snapshots = append(result.Snapshots, LogSnapshot{
				ID:          info.ID,
				Seq:         info.Seq,
				GraphHash:   info.GraphHash,
				Vars:        info.VarCount,
				Evaluations: info.Evaluations,
			})
		}
		return f.Success(result)
	}

	snap, err := st.ReadSnapshot(ctx, opts.SnapshotID)
	if err != nil {
		return failSnapshot(f, opts.SnapshotID, err)
	}
	query, err := opts.query()
	if err != nil {
		return fail(f, err)
	}
	records, err := st.QueryEvaluations(ctx, query)
	if err != nil {
		return failDB(f, ExitCommandError, "failed to read evaluations", err)
	}

	names := snap.Graph.Name
	result := &LogResult{SnapshotID: snap.ID, Evaluations: make([]LogEvaluation, 0, len(records))}
	for _, rec := range records {
		result.Evaluations = append(result.Evaluations, LogEvaluation{
			Seq:      rec.Seq,
			Mode:     rec.Mode.String(),
			Input:    elem.Format(rec.Input, names),
			Output:   elem.Format(rec.Output, names),
			Outcome:  string(rec.Outcome),
			ExprHash: rec.ExprHash,
		})
	}
	return f.Success(result)
}

// query builds the evaluation filter from the flags.
func (opts *LogOptions) query() (store.EvaluationQuery, error) {
	q := store.EvaluationQuery{SnapshotID: opts.SnapshotID, Limit: opts.Limit}
	if opts.Mode != "" {
		m, ok := elem.ParseMode(opts.Mode)
		if !ok {
			return q, NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be eval or simplify", opts.Mode))
		}
		q.Mode = &m
	}
	switch engine.Outcome(opts.Outcome) {
	case "", engine.OutcomeResolved, engine.OutcomeSymbolic, engine.OutcomeEmpty:
		q.Outcome = engine.Outcome(opts.Outcome)
	default:
		return q, NewExitError(ExitCommandError, fmt.Sprintf("invalid outcome %q: must be resolved, symbolic or empty", opts.Outcome))
	}
	if opts.Limit < 0 {
		return q, NewExitError(ExitCommandError, "limit must not be negative")
	}
	return q, nil
}

// failSnapshot reports a snapshot read failure. Unknown ids are command
// errors with ErrCodeNotFound.
func failSnapshot(f *OutputFormatter, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("snapshot %q not found", id)
		_ = f.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	return failDB(f, ExitCommandError, fmt.Sprintf("failed to read snapshot %s", id), err)
}
