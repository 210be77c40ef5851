package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/graph"
)

func addVar(t *testing.T, g *graph.Memory, name string) elem.VarID {
	t.Helper()
	id, err := g.Add(graph.Var{Name: name, Type: elem.BuiltinType{Name: "uint256"}})
	require.NoError(t, err)
	return id
}

func setRange(t *testing.T, g *graph.Memory, id elem.VarID, lo, hi elem.Elem) {
	t.Helper()
	require.NoError(t, g.SetRange(id, lo, hi))
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(graph.New()))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	g := graph.New()
	a := addVar(t, g, "a")
	b := addVar(t, g, "b")
	c := addVar(t, g, "c")
	zero := elem.Lit(concrete.U256(0))
	setRange(t, g, b, zero, elem.Ref(a, elem.RangeMax))
	setRange(t, g, c, elem.Ref(a, elem.RangeMin), elem.Add(elem.Ref(b, elem.RangeMax), elem.Ref(a, elem.RangeMax)))

	assert.Empty(t, AnalyzeCycles(g))
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	g := graph.New()
	x := addVar(t, g, "x")
	setRange(t, g, x, elem.Lit(concrete.U256(0)), elem.Ref(x, elem.RangeMax))

	cycles := AnalyzeCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"x", "x"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "refers to itself")
}

func TestAnalyzeCycles_ThreeNodes(t *testing.T) {
	g := graph.New()
	a := addVar(t, g, "a")
	b := addVar(t, g, "b")
	c := addVar(t, g, "c")
	zero := elem.Lit(concrete.U256(0))
	setRange(t, g, a, zero, elem.Ref(b, elem.RangeMax))
	setRange(t, g, b, zero, elem.Ref(c, elem.RangeMax))
	setRange(t, g, c, elem.Ref(a, elem.RangeMin), zero)

	cycles := AnalyzeCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path)
	assert.Equal(t, "bound cycle: a -> b -> c -> a", cycles[0].Message)
}

func TestAnalyzeCycles_Multiple(t *testing.T) {
	g := graph.New()
	a := addVar(t, g, "a")
	b := addVar(t, g, "b")
	c := addVar(t, g, "c")
	d := addVar(t, g, "d")
	zero := elem.Lit(concrete.U256(0))
	setRange(t, g, d, zero, elem.Ref(c, elem.RangeMax))
	setRange(t, g, c, zero, elem.Ref(d, elem.RangeMax))
	setRange(t, g, b, zero, elem.Ref(a, elem.RangeMax))
	setRange(t, g, a, zero, elem.Ref(b, elem.RangeMax))

	cycles := AnalyzeCycles(g)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"a", "b", "a"}, cycles[0].Path, "ordered by smallest member")
	assert.Equal(t, []string{"c", "d", "c"}, cycles[1].Path)
}
