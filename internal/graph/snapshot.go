package graph

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces snapshot ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 snapshot ids, so listing
// snapshots by id also lists them by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids in order and panics once they are
// used up. Tests use it to get stable snapshot ids in golden output.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Snapshot is an immutable, identified copy of a graph.
type Snapshot struct {
	ID    string
	Graph *Memory
}

// Snapshot freezes the current state of m under a fresh id. Later changes to
// m do not affect the snapshot.
func (m *Memory) Snapshot(gen IDGenerator) Snapshot {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return Snapshot{ID: gen.Generate(), Graph: m.Clone()}
}
