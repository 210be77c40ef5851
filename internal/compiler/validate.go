package compiler

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// Validation error codes (E100-E199)
const (
	ErrInvertedRange     = "E101" // literal min is greater than literal max
	ErrOpaqueReference   = "E102" // element refers to an opaque variable
	ErrBoundTypeMismatch = "E103" // literal bound does not fit the declared type
	ErrSymbolicConcrete  = "E104" // concrete variable marked symbolic
)

// ValidationError represents a semantic problem in a compiled program.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program.
// Returns all errors found (does not fail-fast).
func Validate(p *Program) []ValidationError {
	var errs []ValidationError

	for _, v := range p.Graph.Vars() {
		field := "vars." + v.Name

		switch t := v.Type.(type) {
		case elem.ConcreteType:
			if v.Symbolic {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "a concrete variable cannot be symbolic",
					Code:    ErrSymbolicConcrete,
				})
			}

		case elem.BuiltinType:
			if t.Range == nil {
				continue
			}
			errs = append(errs, checkOpaqueRefs(p.Graph, field+".range.min", t.Range.Min)...)
			errs = append(errs, checkOpaqueRefs(p.Graph, field+".range.max", t.Range.Max)...)
			errs = append(errs, checkBoundType(field+".range.min", t.Name, t.Range.Min)...)
			errs = append(errs, checkBoundType(field+".range.max", t.Name, t.Range.Max)...)

			if ord, ok := elem.RangeOrd(t.Range.Min, t.Range.Max); ok && ord > 0 {
				errs = append(errs, ValidationError{
					Field:   field + ".range",
					Message: fmt.Sprintf("min %s is greater than max %s", t.Range.Min, t.Range.Max),
					Code:    ErrInvertedRange,
				})
			}
		}
	}

	for _, name := range p.Order {
		errs = append(errs, checkOpaqueRefs(p.Graph, "exprs."+name, p.Exprs[name])...)
	}

	return errs
}

func checkOpaqueRefs(g *graph.Memory, field string, e elem.Elem) []ValidationError {
	var errs []ValidationError
	for _, id := range elem.DependencySet(e) {
		v, ok := g.Get(id)
		if !ok {
			continue
		}
		if o, opaque := v.Type.(elem.OpaqueType); opaque {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s has opaque type %q and no range", v.Name, o.Name),
				Code:    ErrOpaqueReference,
			})
		}
	}
	return errs
}

// checkBoundType reports a literal bound whose kind or value is outside the
// declared builtin type. Non-literal bounds are not checked.
func checkBoundType(field, typeName string, bound elem.Elem) []ValidationError {
	c, ok := elem.AsConcrete(bound)
	if !ok {
		return nil
	}
	if msg := fitsType(typeName, c.Val); msg != "" {
		return []ValidationError{{Field: field, Message: msg, Code: ErrBoundTypeMismatch}}
	}
	return nil
}

func fitsType(typeName string, v concrete.Value) string {
	mismatch := fmt.Sprintf("%s does not fit %s", v, typeName)

	switch {
	case typeName == "bool":
		if v.Kind() != concrete.KindBool {
			return mismatch
		}
	case typeName == "address":
		if v.Kind() != concrete.KindAddress {
			return mismatch
		}
	case typeName == "string":
		if v.Kind() != concrete.KindString {
			return mismatch
		}
	case typeName == "bytes":
		if v.Kind() != concrete.KindDynBytes {
			return mismatch
		}
	case strings.HasPrefix(typeName, "bytes"):
		b, ok := v.(concrete.Bytes)
		if !ok || strconv.Itoa(int(b.Size)) != strings.TrimPrefix(typeName, "bytes") {
			return mismatch
		}
	case strings.HasPrefix(typeName, "uint"), strings.HasPrefix(typeName, "int"):
		n, ok := bigOf(v)
		if !ok {
			return mismatch
		}
		signed := strings.HasPrefix(typeName, "int")
		width := typeWidth(typeName)
		lo, hi := concrete.MinInt(width), concrete.MaxInt(width)
		if !signed {
			lo, hi = new(big.Int), concrete.MaxUint(width)
		}
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return mismatch
		}
	}
	return ""
}

func typeWidth(typeName string) uint16 {
	digits := strings.TrimPrefix(strings.TrimPrefix(typeName, "u"), "int")
	if digits == "" {
		return concrete.MaxWidth
	}
	w, err := strconv.Atoi(digits)
	if err != nil {
		return concrete.MaxWidth
	}
	return uint16(w)
}
