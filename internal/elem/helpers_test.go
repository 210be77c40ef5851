package elem_test

import (
	"math/big"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/rangeops"
)

// fakeGraph is a map-backed elem.Graph.
type fakeGraph struct {
	vars     map[elem.VarID]elem.VarInfo
	symbolic map[elem.VarID]bool
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		vars:     make(map[elem.VarID]elem.VarInfo),
		symbolic: make(map[elem.VarID]bool),
	}
}

func (g *fakeGraph) Var(id elem.VarID) (elem.VarInfo, bool) {
	info, ok := g.vars[id]
	return info, ok
}

func (g *fakeGraph) IsSymbolic(id elem.VarID) bool {
	return g.symbolic[id]
}

// free declares a symbolic variable with no known range.
func (g *fakeGraph) free(id elem.VarID) {
	g.vars[id] = elem.VarInfo{Type: elem.BuiltinType{Name: "uint256"}}
	g.symbolic[id] = true
}

// ranged declares a variable with the given bounds.
func (g *fakeGraph) ranged(id elem.VarID, lo, hi elem.Elem) {
	g.vars[id] = elem.VarInfo{Type: elem.BuiltinType{Name: "uint256", Range: &elem.Range{Min: lo, Max: hi}}}
}

func (g *fakeGraph) analyzer() elem.Analyzer {
	return elem.Bind(g, rangeops.New())
}

func lit(n uint64) elem.Concrete {
	return elem.Lit(concrete.U256(n))
}

func ilit(n int64) elem.Concrete {
	return elem.Lit(concrete.I256(n))
}

// literalString returns the literal payload of e, or "" when e is not a literal.
func literalString(e elem.Elem) string {
	c, ok := elem.AsConcrete(e)
	if !ok {
		return ""
	}
	return c.Val.String()
}

func bigInt(n int64) *big.Int {
	return big.NewInt(n)
}
