package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	a := gen.Generate()
	b := gen.Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "v7 ids sort by creation time")
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s-1", "s-2")

	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestSnapshotIsFrozen(t *testing.T) {
	g := New()
	x := mustAdd(t, g, Var{Name: "x", Type: uint256()})

	snap := g.Snapshot(NewFixedGenerator("snap-1"))
	require.NoError(t, g.SetRange(x, elem.Lit(concrete.U256(1)), elem.Lit(concrete.U256(2))))
	mustAdd(t, g, Var{Name: "y", Type: uint256()})

	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, 1, snap.Graph.Len())
	xv, ok := snap.Graph.Get(x)
	require.True(t, ok)
	assert.Nil(t, xv.Type.(elem.BuiltinType).Range)
}

func TestSnapshotDefaultsToUUIDv7(t *testing.T) {
	snap := New().Snapshot(nil)
	_, err := uuid.Parse(snap.ID)
	assert.NoError(t, err)
}
