package engine

import (
	"errors"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/elem"
)

// DefaultMaxLookups is the default number of variable lookups one evaluation
// may perform. Acyclic graphs of realistic size stay far below it; a graph
// whose bounds form a cycle hits it instead of recursing forever.
const DefaultMaxLookups = 100_000

// QuotaEnforcer counts variable lookups during a single evaluation and
// enforces a maximum.
//
// Each evaluation gets its own QuotaEnforcer, so it needs no locking.
type QuotaEnforcer struct {
	maxLookups int
	current    int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
// A limit of zero or less disables the check.
func NewQuotaEnforcer(maxLookups int) *QuotaEnforcer {
	return &QuotaEnforcer{maxLookups: maxLookups}
}

// Check increments the lookup counter and validates against the limit.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.maxLookups > 0 && q.current > q.maxLookups {
		return &LookupsExceededError{Lookups: q.current, Limit: q.maxLookups}
	}
	return nil
}

// Current returns the current lookup count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// LookupsExceededError is raised when an evaluation exceeds its lookup quota.
type LookupsExceededError struct {
	Lookups int
	Limit   int
}

// Error implements the error interface.
func (e *LookupsExceededError) Error() string {
	return fmt.Sprintf("evaluation exceeded lookup quota: %d lookups > %d limit", e.Lookups, e.Limit)
}

// IsLookupsExceededError returns true if the error is a LookupsExceededError.
func IsLookupsExceededError(err error) bool {
	var le *LookupsExceededError
	return errors.As(err, &le)
}

// meteredGraph charges every variable lookup against a quota. Evaluation has
// no error path, so an exhausted quota panics with *LookupsExceededError and
// the engine recovers it.
type meteredGraph struct {
	elem.Graph
	quota *QuotaEnforcer
}

func (m meteredGraph) Var(id elem.VarID) (elem.VarInfo, bool) {
	if err := m.quota.Check(); err != nil {
		panic(err)
	}
	return m.Graph.Var(id)
}
