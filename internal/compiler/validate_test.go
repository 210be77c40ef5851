package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateClean(t *testing.T) {
	p := mustCompile(t, sampleGraph)
	assert.Empty(t, Validate(p))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
	}{
		{
			name:  "inverted range",
			src:   `vars: x: {range: {min: 9, max: 3}}`,
			codes: []string{ErrInvertedRange},
		},
		{
			name:  "equal bounds are fine",
			src:   `vars: x: {range: {min: 3, max: 3}}`,
			codes: []string{},
		},
		{
			name: "opaque reference in bound",
			src: `vars: {
	m: {opaque: "T"}
	x: {range: {min: 0, max: {ref: "m", side: "max"}}}
}`,
			codes: []string{ErrOpaqueReference},
		},
		{
			name: "opaque reference in expression",
			src: `vars: m: {opaque: "T"}
exprs: e: {op: "add", lhs: {ref: "m", side: "min"}, rhs: 1}`,
			codes: []string{ErrOpaqueReference},
		},
		{
			name:  "bound wider than type",
			src:   `vars: x: {type: "uint8", range: {min: 0, max: 256}}`,
			codes: []string{ErrBoundTypeMismatch},
		},
		{
			name:  "negative bound for unsigned",
			src:   `vars: x: {type: "uint8", range: {min: -1, max: 2}}`,
			codes: []string{ErrBoundTypeMismatch},
		},
		{
			name:  "signed bounds",
			src:   `vars: x: {type: "int8", range: {min: -128, max: 127}}`,
			codes: []string{},
		},
		{
			name:  "wrong kind",
			src:   `vars: x: {type: "bool", range: {min: false, max: 1}}`,
			codes: []string{ErrBoundTypeMismatch},
		},
		{
			name:  "fixed bytes size",
			src:   `vars: x: {type: "bytes2", range: {min: {fixed: "0x0000"}, max: {fixed: "0xffff", size: 3}}}`,
			codes: []string{ErrBoundTypeMismatch},
		},
		{
			name:  "symbolic concrete",
			src:   `vars: k: {concrete: 1, symbolic: true}`,
			codes: []string{ErrSymbolicConcrete},
		},
		{
			name: "collects every error",
			src: `vars: {
	m: {opaque: "T"}
	x: {type: "uint8", range: {min: 300, max: {ref: "m", side: "max"}}}
	k: {concrete: 1, symbolic: true}
}`,
			codes: []string{ErrOpaqueReference, ErrBoundTypeMismatch, ErrSymbolicConcrete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.src)
			assert.Equal(t, tt.codes, codes(Validate(p)))
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "vars.x.range", Message: "min 9 is greater than max 3", Code: ErrInvertedRange}
	assert.Equal(t, "[E101] vars.x.range: min 9 is greater than max 3", err.Error())
}
