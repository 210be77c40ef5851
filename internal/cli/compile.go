package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekhirin/pyrometer/internal/compiler"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledVar describes one graph variable.
type CompiledVar struct {
	ID       elem.VarID `json:"id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind"` // builtin | concrete | opaque
	Type     string     `json:"type,omitempty"`
	Symbolic bool       `json:"symbolic,omitempty"`
	Min      string     `json:"min,omitempty"`
	Max      string     `json:"max,omitempty"`
	Value    string     `json:"value,omitempty"`
}

// CompiledExpr is one named expression, rendered with variable names.
type CompiledExpr struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

// CompilationResult is the compiled graph.
type CompilationResult struct {
	Vars  []CompiledVar  `json:"vars"`
	Exprs []CompiledExpr `json:"exprs"`
}

// Text renders the result for terminals.
func (r *CompilationResult) Text() string {
	var b strings.Builder
	b.WriteString("vars:\n")
	for _, v := range r.Vars {
		fmt.Fprintf(&b, "  #%d %s", v.ID, v.Name)
		switch v.Kind {
		case "concrete":
			fmt.Fprintf(&b, " = %s", v.Value)
		case "opaque":
			fmt.Fprintf(&b, " opaque %s", v.Type)
		default:
			fmt.Fprintf(&b, " %s", v.Type)
			if v.Min != "" {
				fmt.Fprintf(&b, " [%s, %s]", v.Min, v.Max)
			}
		}
		if v.Symbolic {
			b.WriteString(" symbolic")
		}
		b.WriteByte('\n')
	}
	b.WriteString("exprs:\n")
	for _, e := range r.Exprs {
		fmt.Fprintf(&b, "  %s = %s\n", e.Name, e.Expr)
	}
	return b.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph>",
		Short: "Compile a CUE graph and print its variables and expressions",
		Long: `Compile a CUE graph file (or the CUE package in a directory) and print
every variable with its type and bounds, followed by the named expressions.

Examples:
  pyrometer compile graph.cue
  pyrometer compile ./graphs/pool --format json
  pyrometer compile graph.cue -o compiled.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the JSON result to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	prog, err := loadGraph(path)
	if err != nil {
		return fail(f, err)
	}
	f.Logger().Debug("compiled graph", "path", path, "vars", prog.Graph.Len(), "exprs", len(prog.Order))

	result := describeProgram(prog)

	if opts.Output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fail(f, WrapExitError(ExitCommandError, "marshal result", err))
		}
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return fail(f, WrapExitError(ExitCommandError, "write output file", err))
		}
	}

	return f.Success(result)
}

func describeProgram(prog *compiler.Program) *CompilationResult {
	names := prog.Graph.Name
	result := &CompilationResult{
		Vars:  make([]CompiledVar, 0, prog.Graph.Len()),
		Exprs: make([]CompiledExpr, 0, len(prog.Order)),
	}
	for _, v := range prog.Graph.Vars() {
		result.Vars = append(result.Vars, describeVar(v, names))
	}
	for _, name := range prog.Order {
		result.Exprs = append(result.Exprs, CompiledExpr{Name: name, Expr: elem.Format(prog.Exprs[name], names)})
	}
	return result
}

func describeVar(v graph.Var, names elem.Namer) CompiledVar {
	out := CompiledVar{ID: v.ID, Name: v.Name, Symbolic: v.Symbolic}
	switch t := v.Type.(type) {
	case elem.BuiltinType:
		out.Kind = "builtin"
		out.Type = t.Name
		if t.Range != nil {
			out.Min = elem.Format(t.Range.Min, names)
			out.Max = elem.Format(t.Range.Max, names)
		}
	case elem.ConcreteType:
		out.Kind = "concrete"
		out.Value = t.Value.String()
	case elem.OpaqueType:
		out.Kind = "opaque"
		out.Type = t.Name
	}
	return out
}

// fail reports err through the formatter and returns it as an ExitError.
// Errors that are not already ExitErrors exit with ExitFailure.
func fail(f *OutputFormatter, err error) error {
	_ = f.Error(errorCode(err), err.Error(), nil)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitFailure, "command failed", err)
}

// failDB reports a store failure under ErrCodeDatabase.
func failDB(f *OutputFormatter, exitCode int, message string, err error) error {
	_ = f.Error(ErrCodeDatabase, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(exitCode, message, err)
}

// errorCode picks the most specific code carried by err.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return compileErr.Code
	}
	var runtimeErr *engine.RuntimeError
	if errors.As(err, &runtimeErr) {
		return string(runtimeErr.Code)
	}
	return ErrCodeGeneric
}
