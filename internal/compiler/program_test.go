package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/rangeops"
)

const sampleGraph = `
vars: {
	x: {type: "uint8", symbolic: true, loc: {file: 0, start: 10, end: 11}}
	y: {range: {min: 0, max: {op: "add", lhs: {ref: "x", side: "max"}, rhs: 1}}}
	k: {concrete: "uint256:7"}
	m: {opaque: "mapping(address => uint256)"}
}
exprs: {
	sum:  {op: "add", lhs: {ref: "k", side: "min"}, rhs: {ref: "k", side: "max"}}
	flag: {op: "not", operand: true}
	capped: {op: "min", lhs: {ref: "y", side: "max"}, rhs: 10}
}
`

func mustCompile(t *testing.T, src string) *Program {
	t.Helper()
	p, err := CompileString(src)
	require.NoError(t, err)
	return p
}

func compileCode(t *testing.T, src string) string {
	t.Helper()
	_, err := CompileString(src)
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "expected CompileError, got %T: %v", err, err)
	return ce.Code
}

func TestCompileGraph(t *testing.T) {
	p := mustCompile(t, sampleGraph)

	require.Equal(t, 4, p.Graph.Len())
	x, ok := p.Graph.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, elem.VarID(1), x.ID)
	assert.True(t, x.Symbolic)
	assert.Equal(t, elem.BuiltinType{Name: "uint8"}, x.Type)
	require.NotNil(t, x.Loc)
	assert.Equal(t, 10, x.Loc.Start)

	y, _ := p.Graph.Lookup("y")
	bt, ok := y.Type.(elem.BuiltinType)
	require.True(t, ok)
	assert.Equal(t, DefaultType, bt.Name)
	require.NotNil(t, bt.Range)
	assert.Equal(t, []elem.VarID{x.ID}, elem.DependentOn(bt.Range.Max))

	k, _ := p.Graph.Lookup("k")
	ct, ok := k.Type.(elem.ConcreteType)
	require.True(t, ok)
	assert.Equal(t, "uint256:7", ct.Value.String())

	m, _ := p.Graph.Lookup("m")
	assert.Equal(t, elem.OpaqueType{Name: "mapping(address => uint256)"}, m.Type)

	assert.Equal(t, []string{"sum", "flag", "capped"}, p.Order)
	flag, ok := p.Expr("flag")
	require.True(t, ok)
	assert.IsType(t, &elem.Unary{}, flag)
}

func TestCompiledProgramEvaluates(t *testing.T) {
	p := mustCompile(t, sampleGraph)
	a := elem.Bind(p.Graph, rangeops.New())

	sum, _ := p.Expr("sum")
	out, ok := elem.AsConcrete(elem.Eval(sum, a))
	require.True(t, ok)
	assert.Equal(t, "uint256:14", out.Val.String())

	flag, _ := p.Expr("flag")
	out, ok = elem.AsConcrete(elem.Eval(flag, a))
	require.True(t, ok)
	assert.Equal(t, "bool:false", out.Val.String())

	capped, _ := p.Expr("capped")
	_, ok = elem.AsConcrete(elem.Eval(capped, a))
	assert.False(t, ok, "y depends on symbolic x and stays unevaluated")
}

func TestForwardReferences(t *testing.T) {
	p := mustCompile(t, `
vars: {
	a: {range: {min: {ref: "b", side: "min"}, max: {ref: "b", side: "max"}}}
	b: {range: {min: 1, max: 2}}
}`)
	a, _ := p.Graph.Lookup("a")
	b, _ := p.Graph.Lookup("b")
	assert.Equal(t, []elem.VarID{b.ID}, elem.DependentOn(a.Type.(elem.BuiltinType).Range.Min))
}

func TestLiteralForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"int shorthand", `5`, "uint256:5"},
		{"negative shorthand", `-3`, "int256:-3"},
		{"bool shorthand", `true`, "bool:true"},
		{"string shorthand", `"uint8:7"`, "uint8:7"},
		{"uint struct", `{uint: 255, width: 8}`, "uint8:255"},
		{"int struct", `{"int": -128, width: 8}`, "int8:-128"},
		{"bool struct", `{"bool": false}`, "bool:false"},
		{"address", `{address: "0x00000000000000000000000000000000000000ff"}`, "address:0x00000000000000000000000000000000000000ff"},
		{"dyn bytes", `{"bytes": "0x6162"}`, "bytes:0x6162"},
		{"fixed bytes", `{fixed: "0x6162"}`, "bytes2:0x6162"},
		{"fixed bytes sized", `{fixed: "0x6162", size: 4}`, "bytes4:0x61620000"},
		{"string struct", `{"string": "ab"}`, `string:"ab"`},
		{"array", `{array: [1, {uint: 2, width: 8}]}`, "[uint256:1, uint8:2]"},
		{"lit", `{lit: "int16:-3"}`, "int16:-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, "exprs: e: "+tt.src)
			e, ok := p.Expr("e")
			require.True(t, ok)
			c, ok := elem.AsConcrete(e)
			require.True(t, ok, "expected literal, got %s", e)
			assert.Equal(t, tt.want, c.Val.String())
		})
	}
}

func TestNullAndLocatedElements(t *testing.T) {
	p := mustCompile(t, `
vars: x: {}
exprs: {
	a: null
	b: {"null": true}
	c: {ref: "x", side: "range_max", loc: {file: 1, start: 4, end: 9}}
	d: {lit: 3, loc: {file: 1, start: 0, end: 1}}
}`)

	a, _ := p.Expr("a")
	b, _ := p.Expr("b")
	assert.True(t, elem.IsNull(a))
	assert.True(t, elem.IsNull(b))

	c, _ := p.Expr("c")
	ref, ok := c.(*elem.Dynamic)
	require.True(t, ok)
	assert.Equal(t, elem.RangeMax, ref.Side)
	assert.Equal(t, elem.Loc{File: 1, Start: 4, End: 9}, ref.Loc)

	d, _ := p.Expr("d")
	lit, ok := elem.AsConcrete(d)
	require.True(t, ok)
	assert.Equal(t, 1, lit.Loc.File)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"var not struct", `vars: x: 5`, ErrInvalidVar},
		{"unknown type", `vars: x: {type: "uint7"}`, ErrUnknownType},
		{"unknown ref", `exprs: e: {ref: "nope", side: "min"}`, ErrUnknownVar},
		{"missing side", `vars: x: {}
exprs: e: {ref: "x"}`, ErrInvalidElem},
		{"bad side", `vars: x: {}
exprs: e: {ref: "x", side: "mid"}`, ErrInvalidElem},
		{"unknown op", `exprs: e: {op: "pow", lhs: 1, rhs: 2}`, ErrUnknownOp},
		{"unary with lhs", `exprs: e: {op: "not", lhs: true, rhs: null}`, ErrInvalidElem},
		{"binary with operand", `exprs: e: {op: "add", operand: 1}`, ErrInvalidElem},
		{"binary missing rhs", `exprs: e: {op: "add", lhs: 1}`, ErrInvalidElem},
		{"literal out of range", `exprs: e: {uint: 256, width: 8}`, ErrInvalidLiteral},
		{"bad literal string", `exprs: e: "uint9:1"`, ErrInvalidLiteral},
		{"unknown struct", `exprs: e: {foo: 1}`, ErrInvalidElem},
		{"conflicting kinds", `vars: x: {concrete: 1, opaque: "T"}`, ErrConflictingKind},
		{"half range", `vars: x: {range: {min: 1}}`, ErrInvalidVar},
		{"self cycle", `vars: x: {range: {min: 0, max: {ref: "x", side: "max"}}}`, ErrBoundCycle},
		{"two cycle", `vars: {
	a: {range: {min: {ref: "b", side: "min"}, max: 1}}
	b: {range: {min: 0, max: {ref: "a", side: "max"}}}
}`, ErrBoundCycle},
		{"bad loc", `vars: x: {loc: {file: 0, start: 5, end: 2}}`, ErrInvalidLoc},
		{"loc not int", `vars: x: {loc: {file: 0, start: "a", end: 2}}`, ErrInvalidLoc},
		{"exprs not struct", `exprs: [1]`, ErrInvalidExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, compileCode(t, tt.src))
		})
	}
}

func TestCompileErrorFieldPath(t *testing.T) {
	_, err := CompileString(`
vars: x: {}
exprs: e: {op: "add", lhs: 1, rhs: {op: "mul", lhs: 2, rhs: {ref: "y", side: "min"}}}
`)
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "exprs.e.rhs.rhs.ref", ce.Field)
	assert.Contains(t, err.Error(), "[E203]")
}

func TestCUESyntaxError(t *testing.T) {
	_, err := CompileString(`vars: {`)
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "cue", ce.Field)
	assert.Equal(t, ErrCUE, ce.Code)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.cue")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraph), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Graph.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`vars: x: {type: "nope"}`), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph.cue")
}

func TestIsBuiltinType(t *testing.T) {
	for _, name := range []string{"uint", "uint8", "uint256", "int", "int104", "bool", "address", "string", "bytes", "bytes1", "bytes32"} {
		assert.True(t, IsBuiltinType(name), name)
	}
	for _, name := range []string{"uint7", "uint264", "int0", "bytes0", "bytes33", "float", "mapping"} {
		assert.False(t, IsBuiltinType(name), name)
	}
}
