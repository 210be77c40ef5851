package testutil

// StaticIDGenerator returns the same snapshot id on every call. Scenarios
// name their snapshot in YAML so golden traces stay byte-identical.
//
// Satisfies graph.IDGenerator.
type StaticIDGenerator struct {
	id string
}

// DefaultSnapshotID is used when a scenario does not name its snapshot.
const DefaultSnapshotID = "snapshot-test-default"

// NewStaticIDGenerator returns a generator for id, or DefaultSnapshotID when
// id is empty.
func NewStaticIDGenerator(id string) *StaticIDGenerator {
	if id == "" {
		id = DefaultSnapshotID
	}
	return &StaticIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *StaticIDGenerator) Generate() string {
	return g.id
}
