// Package model holds the two-snapshot entity model and the engine that
// records matches between the before and after versions of a codebase.
//
// A Model is populated by an extraction pass, seeded with InitRelationships
// and then fed candidate relationships by detection logic. It is not safe for
// concurrent mutation.
package model

import (
	"errors"
	"strings"
)

var (
	ErrAlreadyInitialized = errors.New("relationships already initialized")
	ErrNotInitialized     = errors.New("relationships not initialized")
)

type Model struct {
	before *Snapshot
	after  *Snapshot

	nextID        int
	initialized   bool
	relationships [][]Relationship
	edges         []Relationship
	refactorings  []Refactoring
}

func NewModel() *Model {
	m := &Model{}
	m.before = newSnapshot(m, "before")
	m.after = newSnapshot(m, "after")
	return m
}

func (m *Model) Before() *Snapshot { return m.before }
func (m *Model) After() *Snapshot  { return m.after }

// Initialized reports whether InitRelationships has run.
func (m *Model) Initialized() bool { return m.initialized }

func (m *Model) nextEntityID() int {
	if m.initialized {
		panic("model: entity created after InitRelationships")
	}
	id := m.nextID
	m.nextID++
	return id
}

// InitRelationships sizes the relationship index from the ids issued so far
// and matches every non-anonymous before entity whose key also exists after.
// It must run once, after both snapshots are fully populated.
func (m *Model) InitRelationships() error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	m.relationships = make([][]Relationship, m.nextID)
	m.initialized = true

	for _, eb := range m.before.entities {
		if eb.IsAnonymous() {
			continue
		}
		ea, ok := m.after.Lookup(eb.Key())
		if !ok || ea.IsAnonymous() || ea.Kind() != eb.Kind() {
			continue
		}
		m.AddRelationship(sameRelationship(eb, ea), eb, ea, 1)
	}
	return nil
}

// sameRelationship is Same unless the interface flag flipped between versions.
func sameRelationship(before, after Entity) RelationshipType {
	tb, okB := before.(*Type)
	ta, okA := after.(*Type)
	if okB && okA && tb.isInterface != ta.isInterface {
		if tb.isInterface {
			return ConvertToClass
		}
		return ConvertToInterface
	}
	return Same
}

// AddRelationship records an edge between a before and an after entity and
// reports whether it was admitted. Non-matching edges are always admitted.
// A matching edge is admitted as primary when neither side is matched, or as
// secondary when exactly one side is matched by the same type and the type
// allows the resulting fan-in or fan-out. Rejection leaves the model untouched.
func (m *Model) AddRelationship(t RelationshipType, before, after Entity, multiplicity int) bool {
	if !m.initialized {
		panic("model: AddRelationship before InitRelationships")
	}
	if !m.before.Contains(before) || !m.after.Contains(after) {
		return false
	}

	secondary := false
	if t.IsMatching() {
		rb, matchedBefore := m.MatchRelationship(before)
		ra, matchedAfter := m.MatchRelationship(after)
		switch {
		case !matchedBefore && !matchedAfter:
		case matchedBefore && matchedAfter:
			return false
		case matchedAfter:
			if !t.IsMultisource() || ra.Type != t {
				return false
			}
			secondary = true
		default:
			if !t.IsMultitarget() || rb.Type != t {
				return false
			}
			secondary = true
		}
	}

	r := Relationship{
		Type:         t,
		Secondary:    secondary,
		Before:       before,
		After:        after,
		Multiplicity: multiplicity,
	}
	m.relationships[before.ID()] = append(m.relationships[before.ID()], r)
	m.relationships[after.ID()] = append(m.relationships[after.ID()], r)
	m.edges = append(m.edges, r)

	if t.IsMatching() {
		m.before.markMatched(before)
		m.after.markMatched(after)
		m.cascade(before, after)
	}
	return true
}

// cascade matches each child of before with the after child that has the
// same local key under after. Children without such a counterpart, or
// already matched, are left alone. Anonymous types are never matched
// themselves, but their members are cascaded through them.
func (m *Model) cascade(before, after Entity) {
	prefix := string(before.Key())
	for _, child := range m.before.children[before.ID()] {
		local := strings.TrimPrefix(string(child.Key()), prefix)
		counterpart, ok := m.after.Lookup(Key(string(after.Key()) + local))
		if !ok || counterpart.Kind() != child.Kind() || counterpart.IsAnonymous() != child.IsAnonymous() {
			continue
		}
		if child.IsAnonymous() {
			m.cascade(child, counterpart)
			continue
		}
		m.AddRelationship(sameRelationship(child, counterpart), child, counterpart, 1)
	}
}

func (m *Model) relationshipsOf(e Entity) []Relationship {
	if e == nil || !m.initialized {
		return nil
	}
	id := e.ID()
	if id < 0 || id >= len(m.relationships) {
		return nil
	}
	return m.relationships[id]
}

// RelationshipsOf returns every edge touching e, in admission order.
func (m *Model) RelationshipsOf(e Entity) []Relationship {
	return append([]Relationship(nil), m.relationshipsOf(e)...)
}

// Relationships returns every admitted edge in admission order.
func (m *Model) Relationships() []Relationship {
	return append([]Relationship(nil), m.edges...)
}

// MatchRelationship returns the first matching edge of e.
func (m *Model) MatchRelationship(e Entity) (Relationship, bool) {
	for _, r := range m.relationshipsOf(e) {
		if r.Type.IsMatching() {
			return r, true
		}
	}
	return Relationship{}, false
}

func (m *Model) IsMatched(e Entity) bool {
	_, ok := m.MatchRelationship(e)
	return ok
}

// AfterOf returns the after counterpart of a before entity.
func (m *Model) AfterOf(e Entity) (Entity, bool) {
	if !m.before.Contains(e) {
		return nil, false
	}
	r, ok := m.MatchRelationship(e)
	if !ok {
		return nil, false
	}
	return r.After, true
}

// BeforeOf returns the before counterpart of an after entity.
func (m *Model) BeforeOf(e Entity) (Entity, bool) {
	if !m.after.Contains(e) {
		return nil, false
	}
	r, ok := m.MatchRelationship(e)
	if !ok {
		return nil, false
	}
	return r.Before, true
}

// ExistsAfter reports whether a before entity has an after counterpart.
func (m *Model) ExistsAfter(e Entity) bool {
	_, ok := m.AfterOf(e)
	return ok
}

// ExistsBefore reports whether an after entity has a before counterpart.
func (m *Model) ExistsBefore(e Entity) bool {
	_, ok := m.BeforeOf(e)
	return ok
}

// EntitiesMatch reports whether a matching edge connects before to after.
func (m *Model) EntitiesMatch(before, after Entity) bool {
	if before == nil || after == nil {
		return false
	}
	for _, r := range m.relationshipsOf(before) {
		if r.Type.IsMatching() && r.Before == before && r.After == after {
			return true
		}
	}
	return false
}

// HasRelationship reports whether an edge of type t connects before to after.
func (m *Model) HasRelationship(t RelationshipType, before, after Entity) bool {
	if before == nil || after == nil {
		return false
	}
	for _, r := range m.relationshipsOf(before) {
		if r.Type == t && r.Before == before && r.After == after {
			return true
		}
	}
	return false
}

func (m *Model) AddRefactoring(r Refactoring) {
	m.refactorings = append(m.refactorings, r)
}

func (m *Model) Refactorings() []Refactoring {
	return append([]Refactoring(nil), m.refactorings...)
}

// IsMatched builds a filter accepting entities that have a match in m.
func IsMatched[T Entity](m *Model) Filter[T] {
	return func(e T) bool {
		return m.IsMatched(e)
	}
}

// IsUnmatched builds a filter accepting entities without a match in m.
func IsUnmatched[T Entity](m *Model) Filter[T] {
	return IsMatched[T](m).Not()
}
