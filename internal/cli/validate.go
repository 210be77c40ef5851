package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/compiler"
)

// ValidationIssue is one compile or validation problem.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult is the outcome of validating one graph.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Vars   int               `json:"vars"`
	Exprs  int               `json:"exprs"`
	Errors []ValidationIssue `json:"errors"`
}

// Text renders the result for terminals.
func (r *ValidationResult) Text() string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "✓ graph is valid (%d vars, %d exprs)\n", r.Vars, r.Exprs)
		return b.String()
	}
	fmt.Fprintf(&b, "✗ %d problem(s)\n\n", len(r.Errors))
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(&b, "  line %d\n", e.Line)
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", e.Code, e.Field, e.Message)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph>",
		Short: "Check a CUE graph for compile and semantic errors",
		Long: `Compile a graph and run the semantic checks: inverted literal ranges,
references to opaque variables, literal bounds that do not fit the declared
type, and symbolic concrete variables. All problems are reported, not just
the first.

Exit codes:
  0 - Graph is valid
  1 - Graph has problems
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	result := &ValidationResult{Errors: []ValidationIssue{}}

	prog, err := LoadGraph(path)
	if err != nil {
		// Compile errors (E2xx) are problems with the graph, not the command.
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || !strings.HasPrefix(loadErr.Code, "E2") {
			return fail(f, WrapExitError(ExitCommandError, "failed to load graph", err))
		}
		issue := ValidationIssue{Code: loadErr.Code, Field: "graph", Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			issue.Line = loadErr.Pos.Line()
		}
		result.Errors = append(result.Errors, issue)
	} else {
		result.Vars = prog.Graph.Len()
		result.Exprs = len(prog.Order)
		for _, verr := range compiler.Validate(prog) {
			result.Errors = append(result.Errors, ValidationIssue{Code: verr.Code, Field: verr.Field, Message: verr.Message})
		}
	}

	result.Valid = len(result.Errors) == 0
	f.Logger().Debug("validated graph", "path", path, "problems", len(result.Errors))

	if err := f.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
