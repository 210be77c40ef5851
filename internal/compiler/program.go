// Package compiler turns CUE graph fixtures into a variable graph plus a set
// of named range expressions.
//
// A fixture has two top-level structs:
//
//	vars: {
//		x: {type: "uint8", symbolic: true}
//		y: {range: {min: 0, max: {op: "add", lhs: {ref: "x", side: "max"}, rhs: 1}}}
//		k: {concrete: "uint256:7"}
//		m: {opaque: "mapping(address => uint256)"}
//	}
//	exprs: {
//		sum: {op: "add", lhs: {ref: "y", side: "max"}, rhs: {ref: "k", side: "min"}}
//	}
//
// Variables get ids in declaration order starting at 1. Element syntax is
// described on ParseElem.
package compiler

import (
	"fmt"
	"os"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// Compile error codes (E201-E299)
const (
	ErrInvalidVar        = "E201" // malformed variable declaration
	ErrUnknownType       = "E202" // type is not a builtin type name
	ErrUnknownVar        = "E203" // reference to an undeclared variable
	ErrInvalidElem       = "E204" // element has no recognised shape
	ErrUnknownOp         = "E205" // operator name not in the enumeration
	ErrInvalidLiteral    = "E206" // literal payload does not parse
	ErrConflictingKind   = "E207" // more than one of range, concrete, opaque
	ErrBoundCycle        = "E208" // bounds reference each other in a cycle
	ErrInvalidLoc        = "E209" // malformed source location
	ErrInvalidExpression = "E210" // malformed exprs entry
	ErrCUE               = "E211" // CUE source does not parse or evaluate
)

// DefaultType is the declared type of variables that omit one.
const DefaultType = "uint256"

var builtinTypePattern = regexp.MustCompile(`^(u?int(8|16|24|32|40|48|56|64|72|80|88|96|104|112|120|128|136|144|152|160|168|176|184|192|200|208|216|224|232|240|248|256)?|bool|address|string|bytes([1-9]|[12][0-9]|3[0-2])?)$`)

// IsBuiltinType reports whether name is a builtin type ("uint8", "int256",
// "bool", "bytes4", ...). A bare "uint" or "int" means the 256-bit type.
func IsBuiltinType(name string) bool {
	return builtinTypePattern.MatchString(name)
}

// Program is a compiled fixture.
type Program struct {
	Graph *graph.Memory

	// Exprs holds the named expressions; Order lists their names in
	// declaration order.
	Exprs map[string]elem.Elem
	Order []string
}

// Expr returns the named expression.
func (p *Program) Expr(name string) (elem.Elem, bool) {
	e, ok := p.Exprs[name]
	return e, ok
}

// CompileString compiles CUE source text.
func CompileString(src string) (*Program, error) {
	return compileBytes("", []byte(src))
}

// LoadFile reads and compiles a .cue fixture.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return compileBytes(path, data)
}

func compileBytes(filename string, src []byte) (*Program, error) {
	ctx := cuecontext.New()
	var opts []cue.BuildOption
	if filename != "" {
		opts = append(opts, cue.Filename(filename))
	}
	v := ctx.CompileBytes(src, opts...)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileGraph(v)
}

// CompileGraph builds a Program from an evaluated CUE value holding vars and
// exprs. It fails on the first malformed declaration and on any cycle
// between variable bounds.
func CompileGraph(v cue.Value) (*Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	prog := &Program{
		Graph: graph.New(),
		Exprs: make(map[string]elem.Elem),
	}

	varsVal := lookup(v, "vars")
	var decls []varDecl
	if varsVal.Exists() {
		var err error
		decls, err = declareVars(prog.Graph, varsVal)
		if err != nil {
			return nil, err
		}
	}

	resolve := func(name string) (elem.VarID, bool) {
		found, ok := prog.Graph.Lookup(name)
		return found.ID, ok
	}

	// Bounds may refer to variables declared later, so ranges are parsed
	// only after every name has an id.
	for _, d := range decls {
		if !d.rangeVal.Exists() {
			continue
		}
		lo, hi, err := parseRange(d.rangeVal, resolve)
		if err != nil {
			return nil, err
		}
		if err := prog.Graph.SetRange(d.id, lo, hi); err != nil {
			return nil, &CompileError{Field: "vars." + d.name + ".range", Message: err.Error(), Code: ErrInvalidVar, Pos: d.rangeVal.Pos()}
		}
	}

	if cycles := AnalyzeCycles(prog.Graph); len(cycles) > 0 {
		return nil, &CompileError{Field: "vars", Message: cycles[0].Message, Code: ErrBoundCycle, Pos: varsVal.Pos()}
	}

	exprsVal := lookup(v, "exprs")
	if exprsVal.Exists() {
		iter, err := exprsVal.Fields()
		if err != nil {
			return nil, &CompileError{Field: "exprs", Message: "must be a struct", Code: ErrInvalidExpression, Pos: exprsVal.Pos()}
		}
		for iter.Next() {
			name := iter.Label()
			e, err := ParseElem(iter.Value(), resolve)
			if err != nil {
				return nil, withField(err, "exprs."+name)
			}
			prog.Exprs[name] = e
			prog.Order = append(prog.Order, name)
		}
	}

	return prog, nil
}

type varDecl struct {
	name     string
	id       elem.VarID
	rangeVal cue.Value
}

func declareVars(g *graph.Memory, varsVal cue.Value) ([]varDecl, error) {
	iter, err := varsVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: "vars", Message: "must be a struct", Code: ErrInvalidVar, Pos: varsVal.Pos()}
	}

	var decls []varDecl
	for iter.Next() {
		name := iter.Label()
		field := "vars." + name
		val := iter.Value()
		if val.IncompleteKind() != cue.StructKind {
			return nil, &CompileError{Field: field, Message: "variable must be a struct", Code: ErrInvalidVar, Pos: val.Pos()}
		}

		v := graph.Var{Name: name}

		symbolic, err := optionalBool(val, "symbolic")
		if err != nil {
			return nil, &CompileError{Field: field + ".symbolic", Message: err.Error(), Code: ErrInvalidVar, Pos: val.Pos()}
		}
		v.Symbolic = symbolic

		if locVal := lookup(val, "loc"); locVal.Exists() {
			loc, err := parseLoc(locVal)
			if err != nil {
				return nil, withField(err, field+".loc")
			}
			v.Loc = &loc
		}

		rangeVal := lookup(val, "range")
		concreteVal := lookup(val, "concrete")
		opaqueVal := lookup(val, "opaque")
		kinds := 0
		for _, x := range []cue.Value{rangeVal, concreteVal, opaqueVal} {
			if x.Exists() {
				kinds++
			}
		}
		if kinds > 1 {
			return nil, &CompileError{Field: field, Message: "at most one of range, concrete, opaque may be set", Code: ErrConflictingKind, Pos: val.Pos()}
		}

		switch {
		case concreteVal.Exists():
			lit, err := ParseLiteral(concreteVal)
			if err != nil {
				return nil, withField(err, field+".concrete")
			}
			v.Type = elem.ConcreteType{Value: lit}

		case opaqueVal.Exists():
			typeName, err := opaqueVal.String()
			if err != nil {
				return nil, &CompileError{Field: field + ".opaque", Message: "must be a type name string", Code: ErrInvalidVar, Pos: opaqueVal.Pos()}
			}
			v.Type = elem.OpaqueType{Name: typeName}

		default:
			typeName := DefaultType
			if typeVal := lookup(val, "type"); typeVal.Exists() {
				typeName, err = typeVal.String()
				if err != nil {
					return nil, &CompileError{Field: field + ".type", Message: "must be a string", Code: ErrInvalidVar, Pos: typeVal.Pos()}
				}
				if !IsBuiltinType(typeName) {
					return nil, &CompileError{Field: field + ".type", Message: fmt.Sprintf("unknown builtin type %q", typeName), Code: ErrUnknownType, Pos: typeVal.Pos()}
				}
			}
			v.Type = elem.BuiltinType{Name: typeName}
		}

		id, err := g.Add(v)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Code: ErrInvalidVar, Pos: val.Pos()}
		}
		decls = append(decls, varDecl{name: name, id: id, rangeVal: rangeVal})
	}
	return decls, nil
}

func parseRange(v cue.Value, resolve Resolver) (elem.Elem, elem.Elem, error) {
	minVal := lookup(v, "min")
	maxVal := lookup(v, "max")
	if !minVal.Exists() || !maxVal.Exists() {
		return nil, nil, &CompileError{Field: "range", Message: "range needs both min and max", Code: ErrInvalidVar, Pos: v.Pos()}
	}
	lo, err := ParseElem(minVal, resolve)
	if err != nil {
		return nil, nil, withField(err, "range.min")
	}
	hi, err := ParseElem(maxVal, resolve)
	if err != nil {
		return nil, nil, withField(err, "range.max")
	}
	return lo, hi, nil
}

func parseLoc(v cue.Value) (elem.Loc, error) {
	var out [3]int64
	for i, key := range []string{"file", "start", "end"} {
		f := lookup(v, key)
		n, err := f.Int64()
		if err != nil {
			return elem.Loc{}, &CompileError{Field: key, Message: "must be an integer", Code: ErrInvalidLoc, Pos: v.Pos()}
		}
		out[i] = n
	}
	if out[2] < out[1] {
		return elem.Loc{}, &CompileError{Field: "end", Message: "end precedes start", Code: ErrInvalidLoc, Pos: v.Pos()}
	}
	return elem.Loc{File: int(out[0]), Start: int(out[1]), End: int(out[2])}, nil
}

func lookup(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func optionalBool(v cue.Value, name string) (bool, error) {
	f := lookup(v, name)
	if !f.Exists() {
		return false, nil
	}
	return f.Bool()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Code    string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	prefix := ""
	if e.Code != "" {
		prefix = "[" + e.Code + "] "
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s%s:%d:%d: %s: %s", prefix,
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
}

// withField prefixes the field path of a CompileError.
func withField(err error, prefix string) error {
	ce, ok := err.(*CompileError)
	if !ok {
		return err
	}
	out := *ce
	if out.Field == "" {
		out.Field = prefix
	} else {
		out.Field = prefix + "." + out.Field
	}
	return &out
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Code:    ErrCUE,
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: "cue", Message: err.Error(), Code: ErrCUE}
}
