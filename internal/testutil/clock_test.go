package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
	"github.com/shekhirin/pyrometer/internal/graph"
	"github.com/shekhirin/pyrometer/internal/rangeops"
)

var (
	_ engine.SeqSource  = (*DeterministicClock)(nil)
	_ graph.IDGenerator = (*StaticIDGenerator)(nil)
)

func TestDeterministicClock(t *testing.T) {
	tests := []struct {
		name   string
		origin int64
		calls  int
		want   []int64
	}{
		{"from zero", 0, 3, []int64{1, 2, 3}},
		{"from origin", 41, 2, []int64{42, 43}},
		{"no calls", 5, 0, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDeterministicClockAt(tt.origin)
			assert.Equal(t, tt.origin, c.Current())
			for range tt.calls {
				c.Next()
			}
			assert.Equal(t, tt.want, c.Issued())
			assert.Equal(t, tt.origin+int64(tt.calls), c.Current())
		})
	}
}

func TestDeterministicClockReset(t *testing.T) {
	c := NewDeterministicClockAt(10)
	c.Next()
	c.Next()
	c.Reset()

	assert.Equal(t, int64(10), c.Current())
	assert.Empty(t, c.Issued())
	assert.Equal(t, int64(11), c.Next())
}

func TestDeterministicClockConcurrent(t *testing.T) {
	c := NewDeterministicClock()
	const workers, calls = 50, 100

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				c.Next()
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, v := range c.Issued() {
		require.False(t, seen[v], "duplicate seq %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Current())
}

func TestDeterministicClockDrivesEngine(t *testing.T) {
	c := NewDeterministicClock()
	e := engine.New(graph.New(), rangeops.New(), engine.WithClock(c))
	ctx := context.Background()

	for range 2 {
		ev, err := e.Reduce(ctx, elem.Lit(concrete.U256(1)), elem.ModeEval)
		require.NoError(t, err)
		assert.Equal(t, c.Current(), ev.Seq)
	}
	assert.Equal(t, []int64{1, 2}, c.Issued())

	c.Reset()
	ev, err := e.Reduce(ctx, elem.Lit(concrete.U256(1)), elem.ModeEval)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.Seq, "rewound clock repeats seq values")
}

func TestStaticIDGenerator(t *testing.T) {
	g := NewStaticIDGenerator("snap-a")
	assert.Equal(t, "snap-a", g.Generate())
	assert.Equal(t, "snap-a", g.Generate())

	assert.Equal(t, DefaultSnapshotID, NewStaticIDGenerator("").Generate())

	snap := graph.New().Snapshot(g)
	assert.Equal(t, "snap-a", snap.ID)
}
