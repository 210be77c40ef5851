package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/rangeops"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	Exprs []string
	All   bool
}

// DepsEntry lists the variables one expression refers to.
type DepsEntry struct {
	Name string   `json:"name"`
	Deps []string `json:"deps"`
	Refs []string `json:"refs,omitempty"` // every reference, left to right
}

// DepsResult lists dependency sets per expression.
type DepsResult struct {
	Results []DepsEntry `json:"results"`
}

// Text renders the result for terminals.
func (r *DepsResult) Text() string {
	var b strings.Builder
	for _, e := range r.Results {
		deps := "(none)"
		if len(e.Deps) > 0 {
			deps = strings.Join(e.Deps, ", ")
		}
		fmt.Fprintf(&b, "%s: %s\n", e.Name, deps)
		if e.Refs != nil {
			fmt.Fprintf(&b, "  refs: %s\n", strings.Join(e.Refs, ", "))
		}
	}
	return b.String()
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps <graph>",
		Short: "List the variables each expression depends on",
		Long: `Print the distinct variables each named expression refers to, in
variable id order. With --all, also print every reference in left-to-right
order, duplicates included.

Examples:
  pyrometer deps graph.cue
  pyrometer deps graph.cue --expr capped --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Exprs, "expr", nil, "expression to inspect (repeatable; default all)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "also list every reference in order")

	return cmd
}

func runDeps(opts *DepsOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	prog, err := loadGraph(path)
	if err != nil {
		return fail(f, err)
	}
	names, err := selectExprs(prog, opts.Exprs)
	if err != nil {
		return fail(f, err)
	}

	eng := engine.New(prog.Graph, rangeops.New(), engine.WithLogger(f.Logger()))
	toNames := func(ids []elem.VarID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = prog.Graph.Name(id)
		}
		return out
	}

	result := &DepsResult{Results: make([]DepsEntry, 0, len(names))}
	for _, name := range names {
		x := prog.Exprs[name]
		entry := DepsEntry{Name: name, Deps: toNames(eng.DependencySet(x))}
		if opts.All {
			entry.Refs = toNames(eng.Dependencies(x))
		}
		result.Results = append(result.Results, entry)
	}

	return f.Success(result)
}
