package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/rangeops"
	"github.com/shekhirin/pyrometer/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database   string
	SnapshotID string // optional - specific snapshot only
}

// ReplayMismatch is one record whose output changed.
type ReplayMismatch struct {
	Seq  int64  `json:"seq"`
	Mode string `json:"mode"`
	Want string `json:"want"`
	Got  string `json:"got"`
}

// ReplaySnapshotResult holds the replay result for one snapshot.
type ReplaySnapshotResult struct {
	SnapshotID    string           `json:"snapshot_id"`
	Checked       int              `json:"checked"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Snapshots        []ReplaySnapshotResult `json:"snapshots"`
	TotalSnapshots   int                    `json:"total_snapshots"`
	AllDeterministic bool                   `json:"all_deterministic"`

	verbose bool
}

// Text renders the result for terminals.
func (r *ReplayResult) Text() string {
	var b strings.Builder
	if r.TotalSnapshots == 0 {
		return "No snapshots found in database.\n"
	}

	fmt.Fprintf(&b, "Replay Summary: %d snapshot(s)\n\n", r.TotalSnapshots)
	for _, s := range r.Snapshots {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(&b, "%s Snapshot: %s\n", status, s.SnapshotID)
		fmt.Fprintf(&b, "  Evaluations: %d checked\n", s.Checked)
		for _, m := range s.Mismatches {
			if r.verbose {
				fmt.Fprintf(&b, "  [%d] %s: want %s, got %s\n", m.Seq, m.Mode, m.Want, m.Got)
			} else {
				fmt.Fprintf(&b, "  [%d] %s: output changed\n", m.Seq, m.Mode)
			}
		}
		b.WriteByte('\n')
	}

	if r.AllDeterministic {
		b.WriteString("✓ All evaluations reproduced\n")
	} else {
		b.WriteString("✗ Replay verification failed\n")
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded evaluations and verify they reproduce",
		Long: `Re-evaluate every recorded evaluation against its stored snapshot and
compare output hashes. Reduction is deterministic, so any difference means
the snapshot or the log was altered, or the evaluator changed.

Exit codes:
  0 - All evaluations reproduced
  1 - Replay verification failed (differences detected)
  2 - Command error (database not found, unknown snapshot, etc.)

Examples:
  pyrometer replay --db ./pyrometer.db
  pyrometer replay --db ./pyrometer.db --snapshot release-1
  pyrometer replay --db ./pyrometer.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SnapshotID, "snapshot", "", "replay specific snapshot only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)
	logger := f.Logger()

	st, err := store.Open(opts.Database)
	if err != nil {
		return failDB(f, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var ids []string
	if opts.SnapshotID != "" {
		ids = []string{opts.SnapshotID}
	} else {
		infos, err := st.ListSnapshots(ctx)
		if err != nil {
			return failDB(f, ExitCommandError, "failed to list snapshots", err)
		}
		for _, info := range infos {
			ids = append(ids, info.ID)
		}
	}

	result := &ReplayResult{
		Snapshots:        make([]ReplaySnapshotResult, 0, len(ids)),
		TotalSnapshots:   len(ids),
		AllDeterministic: true,
		verbose:          opts.Verbose,
	}

	for _, id := range ids {
		snap, err := st.ReadSnapshot(ctx, id)
		if err != nil {
			return failSnapshot(f, id, err)
		}
		records, err := st.ReadEvaluations(ctx, id)
		if err != nil {
			return failDB(f, ExitCommandError, fmt.Sprintf("failed to read evaluations of %s", id), err)
		}

		eng := engine.New(snap.Graph, rangeops.New(), engine.WithLogger(logger))
		res, err := eng.Replay(ctx, records)
		if err != nil {
			return fail(f, WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay snapshot %s", id), err))
		}
		logger.Debug("replayed snapshot", "snapshot", id, "checked", res.Checked, "mismatches", len(res.Mismatches))

		sr := ReplaySnapshotResult{SnapshotID: id, Checked: res.Checked, Deterministic: res.OK()}
		for _, m := range res.Mismatches {
			sr.Mismatches = append(sr.Mismatches, ReplayMismatch{Seq: m.Seq, Mode: m.Mode.String(), Want: m.Want, Got: m.Got})
		}
		result.Snapshots = append(result.Snapshots, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if result.AllDeterministic {
		return f.Success(result)
	}
	if err := f.Failure(ErrCodeMismatch, "replay verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "replay verification failed")
}
