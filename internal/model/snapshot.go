package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateEntity is returned when a factory would create a second entity
// with an existing key. It signals an extraction bug and the version pair
// should not be analyzed further.
var ErrDuplicateEntity = errors.New("duplicate entity")

// Snapshot is the entity repository for one version of the codebase.
type Snapshot struct {
	model *Model
	name  string

	entities []Entity
	byID     map[int]Entity
	byKey    map[Key]Entity
	byName   map[Kind]map[string]Entity
	children map[int][]Entity

	packages   []*Package
	types      []*Type
	methods    []*Method
	attributes []*Attribute

	unmatched map[int]struct{}
}

func newSnapshot(m *Model, name string) *Snapshot {
	return &Snapshot{
		model:     m,
		name:      name,
		byID:      make(map[int]Entity),
		byKey:     make(map[Key]Entity),
		byName:    make(map[Kind]map[string]Entity),
		children:  make(map[int][]Entity),
		unmatched: make(map[int]struct{}),
	}
}

// Name is "before" or "after".
func (s *Snapshot) Name() string {
	return s.name
}

// GetOrCreatePackage returns the package with the derived key, creating it
// on first use. A key already taken by another kind of entity is a
// duplicate.
func (s *Snapshot) GetOrCreatePackage(fullName, sourceFolder string) (*Package, error) {
	key := packageKey(sourceFolder, fullName)
	if e, ok := s.byKey[key]; ok {
		if p, ok := e.(*Package); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%s snapshot: %w: %s", s.name, ErrDuplicateEntity, key)
	}
	p := &Package{sourceFolder: sourceFolder}
	s.init(&p.entity, key, fullName, nil)
	s.packages = append(s.packages, p)
	s.register(p)
	return p, nil
}

// CreateType creates a named type inside container (a package or a type).
func (s *Snapshot) CreateType(simpleName string, container Entity, sourceFile string) (*Type, error) {
	key := typeKey(container.Key(), simpleName)
	if err := s.checkFree(key); err != nil {
		return nil, err
	}
	t := &Type{
		simpleName: simpleName,
		sourceFile: sourceFile,
		origins:    NewMultiset[*Type](),
	}
	if outer, ok := container.(*Type); ok {
		t.nestingLevel = outer.nestingLevel + 1
	}
	s.init(&t.entity, key, container.FullName()+typeSeparator+simpleName, container)
	s.types = append(s.types, t)
	s.register(t)
	s.unmatched[t.id] = struct{}{}
	return t, nil
}

// CreateAnonymousType asks container to synthesize a nested anonymous type.
// Anonymous types are indexed by key but never tracked as unmatched.
func (s *Snapshot) CreateAnonymousType(container *Type, sourceFile, localName string) (*Type, error) {
	key := anonymousKey(container.Key(), localName)
	if err := s.checkFree(key); err != nil {
		return nil, err
	}
	t := container.newAnonymous(localName, sourceFile)
	s.init(&t.entity, key, container.FullName()+anonymousSeparator+localName, container)
	container.anonymousOf = append(container.anonymousOf, t)
	s.types = append(s.types, t)
	s.register(t)
	return t, nil
}

func (t *Type) newAnonymous(localName, sourceFile string) *Type {
	return &Type{
		simpleName:   localName,
		sourceFile:   sourceFile,
		anonymous:    true,
		nestingLevel: t.nestingLevel + 1,
		origins:      NewMultiset[*Type](),
	}
}

// CreateMethod creates a method identified by its signature, e.g. "bar(int)".
func (s *Snapshot) CreateMethod(signature string, container Entity, isConstructor bool) (*Method, error) {
	key := memberKey(container.Key(), signature)
	if err := s.checkFree(key); err != nil {
		return nil, err
	}
	m := &Method{
		signature:   signature,
		identifier:  methodIdentifier(signature),
		constructor: isConstructor,
		visibility:  VisibilityPackage,
		callers:     NewMultiset[*Method](),
		origins:     NewMultiset[*Method](),
		inlinedTo:   NewMultiset[*Method](),
	}
	s.init(&m.entity, key, container.FullName()+memberSeparator+signature, container)
	s.methods = append(s.methods, m)
	s.register(m)
	s.unmatched[m.id] = struct{}{}
	return m, nil
}

// CreateAttribute creates a field or variable named name inside container.
func (s *Snapshot) CreateAttribute(name string, container Entity) (*Attribute, error) {
	key := memberKey(container.Key(), name)
	if err := s.checkFree(key); err != nil {
		return nil, err
	}
	a := &Attribute{name: name, visibility: VisibilityPackage}
	s.init(&a.entity, key, container.FullName()+memberSeparator+name, container)
	s.attributes = append(s.attributes, a)
	s.register(a)
	s.unmatched[a.id] = struct{}{}
	return a, nil
}

func (s *Snapshot) checkFree(key Key) error {
	if _, ok := s.byKey[key]; ok {
		return fmt.Errorf("%s snapshot: %w: %s", s.name, ErrDuplicateEntity, key)
	}
	return nil
}

func (s *Snapshot) init(e *entity, key Key, fullName string, container Entity) {
	e.id = s.model.nextEntityID()
	e.key = key
	e.fullName = fullName
	e.snapshot = s
	e.containerID = noContainer
	e.referencedBy = NewMultiset[Entity]()
	if container != nil {
		e.containerID = container.ID()
	}
}

func (s *Snapshot) register(e Entity) {
	s.entities = append(s.entities, e)
	s.byID[e.ID()] = e
	s.byKey[e.Key()] = e
	names := s.byName[e.Kind()]
	if names == nil {
		names = make(map[string]Entity)
		s.byName[e.Kind()] = names
	}
	if _, taken := names[e.FullName()]; !taken {
		names[e.FullName()] = e
	}
	if c := e.base().containerID; c != noContainer {
		s.children[c] = append(s.children[c], e)
	}
}

// Find returns the entity with key if it exists and is a T.
func Find[T Entity](s *Snapshot, key Key) (T, bool) {
	var zero T
	e, ok := s.byKey[key]
	if !ok {
		return zero, false
	}
	t, ok := e.(T)
	return t, ok
}

// FindByName returns the first entity of kind T registered under fullName.
func FindByName[T Entity](s *Snapshot, fullName string) (T, bool) {
	var zero T
	for k := KindPackage; k <= KindAttribute; k++ {
		if e, ok := s.byName[k][fullName]; ok {
			if t, ok := e.(T); ok {
				return t, true
			}
		}
	}
	return zero, false
}

// Lookup returns the entity with key regardless of its kind.
func (s *Snapshot) Lookup(key Key) (Entity, bool) {
	e, ok := s.byKey[key]
	return e, ok
}

func (s *Snapshot) Exists(key Key) bool {
	_, ok := s.byKey[key]
	return ok
}

// Contains reports whether e was created by this snapshot.
func (s *Snapshot) Contains(e Entity) bool {
	return e != nil && e.base().snapshot == s
}

// Entities returns every entity in creation order.
func (s *Snapshot) Entities() []Entity {
	return append([]Entity(nil), s.entities...)
}

// Children returns the entities whose container is e, in creation order.
func (s *Snapshot) Children(e Entity) []Entity {
	return append([]Entity(nil), s.children[e.ID()]...)
}

func (s *Snapshot) Packages() []*Package     { return append([]*Package(nil), s.packages...) }
func (s *Snapshot) Types() []*Type           { return append([]*Type(nil), s.types...) }
func (s *Snapshot) Methods() []*Method       { return append([]*Method(nil), s.methods...) }
func (s *Snapshot) Attributes() []*Attribute { return append([]*Attribute(nil), s.attributes...) }

func (s *Snapshot) UnmatchedTypes() []*Type {
	return unmatchedOf(s, s.types)
}

func (s *Snapshot) UnmatchedMethods() []*Method {
	return unmatchedOf(s, s.methods)
}

func (s *Snapshot) UnmatchedAttributes() []*Attribute {
	return unmatchedOf(s, s.attributes)
}

func unmatchedOf[T Entity](s *Snapshot, all []T) []T {
	var out []T
	for _, e := range all {
		if _, ok := s.unmatched[e.ID()]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *Snapshot) markMatched(e Entity) {
	delete(s.unmatched, e.ID())
}
