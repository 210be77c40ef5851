package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/graph"
	"github.com/shekhirin/pyrometer/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
	ID       string
}

// SnapshotResult identifies a stored snapshot.
type SnapshotResult struct {
	ID   string `json:"id"`
	Vars int    `json:"vars"`
}

// Text renders the result for terminals.
func (r *SnapshotResult) Text() string {
	return fmt.Sprintf("%s (%d vars)\n", r.ID, r.Vars)
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <graph>",
		Short: "Store a graph snapshot and print its id",
		Long: `Compile and validate a graph, then store it as an immutable snapshot.

Storing the same graph under the same id again is a no-op; storing a
different graph under an existing id fails.

Examples:
  pyrometer snapshot graph.cue --db ./pyrometer.db
  pyrometer snapshot graph.cue --db ./pyrometer.db --id release-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "snapshot id (default: new UUIDv7)")

	return cmd
}

func runSnapshot(ctx context.Context, opts *SnapshotOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	prog, err := loadCheckedGraph(path)
	if err != nil {
		return fail(f, err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return failDB(f, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var gen graph.IDGenerator
	if opts.ID != "" {
		gen = graph.NewFixedGenerator(opts.ID)
	}
	snap := prog.Graph.Snapshot(gen)
	if err := st.WriteSnapshot(ctx, snap); err != nil {
		return failDB(f, ExitFailure, "failed to write snapshot", err)
	}
	f.Logger().Debug("stored snapshot", "id", snap.ID, "vars", snap.Graph.Len())

	return f.Success(&SnapshotResult{ID: snap.ID, Vars: snap.Graph.Len()})
}
