// Package graph provides the in-memory variable graph that range elements are
// evaluated against.
//
// A Memory holds one analysis context: the declared type, current range and
// symbolic flag of every variable. Evaluation only reads it, through the
// elem.Graph interface, so any number of goroutines may evaluate against the
// same Memory while no writer is active.
package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/shekhirin/pyrometer/internal/elem"
)

// Var is one variable node.
type Var struct {
	ID       elem.VarID
	Name     string
	Type     elem.VarType
	Loc      *elem.Loc
	Symbolic bool
}

// Memory is a mutable variable graph guarded by a read-write lock.
type Memory struct {
	mu     sync.RWMutex
	vars   map[elem.VarID]*Var
	byName map[string]elem.VarID
	next   elem.VarID
}

var _ elem.Graph = (*Memory)(nil)

// New creates an empty graph. Variable ids start at 1.
func New() *Memory {
	return &Memory{
		vars:   make(map[elem.VarID]*Var),
		byName: make(map[string]elem.VarID),
		next:   1,
	}
}

// NormalizeName returns the NFC form of a variable name. Names that differ
// only in Unicode normalization refer to the same variable.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Add inserts v. A zero v.ID is replaced by the next free id. The assigned id
// is returned.
func (m *Memory) Add(v Var) (elem.VarID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(v)
}

func (m *Memory) addLocked(v Var) (elem.VarID, error) {
	v.Name = NormalizeName(v.Name)
	if v.Name == "" {
		return 0, fmt.Errorf("variable name is empty")
	}
	if v.Type == nil {
		return 0, fmt.Errorf("variable %q has no type", v.Name)
	}
	if _, dup := m.byName[v.Name]; dup {
		return 0, fmt.Errorf("variable %q already declared", v.Name)
	}
	if v.ID == 0 {
		v.ID = m.next
	}
	if _, dup := m.vars[v.ID]; dup {
		return 0, fmt.Errorf("variable id %d already in use", v.ID)
	}
	if v.ID >= m.next {
		m.next = v.ID + 1
	}

	stored := v
	m.vars[v.ID] = &stored
	m.byName[v.Name] = v.ID
	return v.ID, nil
}

// Var implements elem.Graph.
func (m *Memory) Var(id elem.VarID) (elem.VarInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vars[id]
	if !ok {
		return elem.VarInfo{}, false
	}
	return elem.VarInfo{Type: v.Type, Loc: v.Loc}, true
}

// IsSymbolic implements elem.Graph.
func (m *Memory) IsSymbolic(id elem.VarID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vars[id]
	return ok && v.Symbolic
}

// Get returns a copy of the variable with the given id.
func (m *Memory) Get(id elem.VarID) (Var, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vars[id]
	if !ok {
		return Var{}, false
	}
	return *v, true
}

// Lookup finds a variable by name.
func (m *Memory) Lookup(name string) (Var, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[NormalizeName(name)]
	if !ok {
		return Var{}, false
	}
	return *m.vars[id], true
}

// Name returns the display name of id, or #id when unknown. It has the
// signature of elem.Namer.
func (m *Memory) Name(id elem.VarID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.vars[id]; ok {
		return v.Name
	}
	return fmt.Sprintf("#%d", id)
}

// Len returns the number of variables.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vars)
}

// Vars returns copies of all variables ordered by id.
func (m *Memory) Vars() []Var {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Var, 0, len(m.vars))
	for _, v := range m.vars {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b Var) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// SetRange replaces the range of a builtin-typed variable.
func (m *Memory) SetRange(id elem.VarID, lo, hi elem.Elem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vars[id]
	if !ok {
		return fmt.Errorf("unknown variable %d", id)
	}
	bt, ok := v.Type.(elem.BuiltinType)
	if !ok {
		return fmt.Errorf("variable %q has no range: type is %T", v.Name, v.Type)
	}
	bt.Range = &elem.Range{Min: lo, Max: hi}
	v.Type = bt
	return nil
}

// SetSymbolic marks id as free or constrained.
func (m *Memory) SetSymbolic(id elem.VarID, symbolic bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vars[id]
	if !ok {
		return fmt.Errorf("unknown variable %d", id)
	}
	v.Symbolic = symbolic
	return nil
}

// Edges returns, for every variable with a range, the ids its bounds refer to.
func (m *Memory) Edges() map[elem.VarID][]elem.VarID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[elem.VarID][]elem.VarID)
	for id, v := range m.vars {
		r := rangeOf(v.Type)
		if r == nil {
			continue
		}
		deps := append(elem.DependentOn(r.Min), elem.DependentOn(r.Max)...)
		slices.Sort(deps)
		out[id] = slices.Compact(deps)
	}
	return out
}

// Clone returns a deep copy of the graph. Range trees are cloned so that
// rewriting one copy never affects the other.
func (m *Memory) Clone() *Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &Memory{
		vars:   make(map[elem.VarID]*Var, len(m.vars)),
		byName: make(map[string]elem.VarID, len(m.byName)),
		next:   m.next,
	}
	for id, v := range m.vars {
		cp := cloneVar(*v)
		out.vars[id] = &cp
		out.byName[cp.Name] = id
	}
	return out
}

// Fork copies each listed variable under a fresh id and name (the original
// name with a prime appended) and returns the old-to-new id mapping.
//
// Bounds of the copies are rewritten through the mapping, and so are the
// bounds of every variable that was not forked: the rest of the context
// follows the new versions. The forked originals keep their bounds and
// describe the state before the fork.
func (m *Memory) Fork(ids []elem.VarID) (map[elem.VarID]elem.VarID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.vars[id]; !ok {
			return nil, fmt.Errorf("cannot fork unknown variable %d", id)
		}
	}

	mapping := make(map[elem.VarID]elem.VarID, len(ids))
	originals := make(map[elem.VarID]bool, len(ids))
	for _, id := range ids {
		if _, seen := mapping[id]; seen {
			continue
		}
		cp := cloneVar(*m.vars[id])
		cp.ID = 0
		cp.Name = m.freshNameLocked(cp.Name)
		newID, err := m.addLocked(cp)
		if err != nil {
			return nil, fmt.Errorf("fork %d: %w", id, err)
		}
		mapping[id] = newID
		originals[id] = true
	}

	for id, v := range m.vars {
		if originals[id] {
			continue
		}
		if r := rangeOf(v.Type); r != nil {
			elem.UpdateDeps(r.Min, mapping)
			elem.UpdateDeps(r.Max, mapping)
		}
	}
	return mapping, nil
}

func (m *Memory) freshNameLocked(name string) string {
	candidate := name + "'"
	for {
		if _, taken := m.byName[candidate]; !taken {
			return candidate
		}
		candidate += "'"
	}
}

func rangeOf(t elem.VarType) *elem.Range {
	bt, ok := t.(elem.BuiltinType)
	if !ok {
		return nil
	}
	return bt.Range
}

func cloneVar(v Var) Var {
	if bt, ok := v.Type.(elem.BuiltinType); ok && bt.Range != nil {
		bt.Range = &elem.Range{Min: cloneBound(bt.Range.Min), Max: cloneBound(bt.Range.Max)}
		v.Type = bt
	}
	if v.Loc != nil {
		loc := *v.Loc
		v.Loc = &loc
	}
	return v
}

func cloneBound(e elem.Elem) elem.Elem {
	if e == nil {
		return nil
	}
	return elem.Clone(e)
}
