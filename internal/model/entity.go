package model

import (
	"strings"

	"refdiff/internal/source"
)

// Kind tags the closed set of entity variants.
type Kind int

const (
	KindPackage Kind = iota
	KindType
	KindMethod
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindAttribute:
		return "attribute"
	}
	return "unknown"
}

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPackage   Visibility = "package"
	VisibilityPrivate   Visibility = "private"
)

// Entity is a declared program element tracked in one snapshot.
// The interface is sealed: only *Package, *Type, *Method and *Attribute
// implement it, and they are created through Snapshot factories.
type Entity interface {
	ID() int
	Key() Key
	FullName() string
	SimpleName() string
	Kind() Kind
	Container() Entity
	IsTestCode() bool
	IsAnonymous() bool
	ReferencedBy() *Multiset[Entity]

	// AddReference records that the receiver references target. The target
	// decides which of its multisets receives the back-reference.
	AddReference(target Entity)
	AddReferencedBy(source Entity)

	base() *entity
}

type entity struct {
	id           int
	key          Key
	fullName     string
	containerID  int
	snapshot     *Snapshot
	testCode     bool
	referencedBy *Multiset[Entity]
}

const noContainer = -1

func (e *entity) ID() int          { return e.id }
func (e *entity) Key() Key         { return e.key }
func (e *entity) FullName() string { return e.fullName }
func (e *entity) IsAnonymous() bool {
	return false
}
func (e *entity) base() *entity { return e }

// Container resolves the owning container through the snapshot index.
func (e *entity) Container() Entity {
	if e.containerID == noContainer || e.snapshot == nil {
		return nil
	}
	return e.snapshot.byID[e.containerID]
}

// IsTestCode reports the entity's own flag, falling back to its container.
func (e *entity) IsTestCode() bool {
	if e.testCode {
		return true
	}
	if c := e.Container(); c != nil {
		return c.IsTestCode()
	}
	return false
}

func (e *entity) SetTestCode(v bool) {
	e.testCode = v
}

func (e *entity) ReferencedBy() *Multiset[Entity] {
	return e.referencedBy
}

func (e *entity) AddReferencedBy(source Entity) {
	e.referencedBy.Add(source)
}

// Package is a namespace container. Its key is sourceFolder + fullName.
type Package struct {
	entity
	sourceFolder string
}

func (p *Package) Kind() Kind                 { return KindPackage }
func (p *Package) SimpleName() string         { return p.key.Name() }
func (p *Package) SourceFolder() string       { return p.sourceFolder }
func (p *Package) AddReference(target Entity) { target.AddReferencedBy(p) }

// Type is a class, interface or anonymous type.
type Type struct {
	entity
	simpleName   string
	sourceFile   string
	isInterface  bool
	anonymous    bool
	nestingLevel int
	deprecated   bool
	subtypes     []*Type
	anonymousOf  []*Type
	sourceCode   source.Representation
	origins      *Multiset[*Type]
}

func (t *Type) Kind() Kind          { return KindType }
func (t *Type) SimpleName() string  { return t.simpleName }
func (t *Type) SourceFile() string  { return t.sourceFile }
func (t *Type) IsAnonymous() bool   { return t.anonymous }
func (t *Type) IsInterface() bool   { return t.isInterface }
func (t *Type) SetInterface(v bool) { t.isInterface = v }
func (t *Type) NestingLevel() int   { return t.nestingLevel }
func (t *Type) Deprecated() bool    { return t.deprecated }
func (t *Type) SetDeprecatedAnnotation(v bool) {
	t.deprecated = v
}
func (t *Type) AddReference(target Entity) { target.AddReferencedBy(t) }

// AnonymousClasses lists the anonymous types nested in t, in creation order.
func (t *Type) AnonymousClasses() []*Type {
	return append([]*Type(nil), t.anonymousOf...)
}

// AddSubtype registers sub as a direct subtype of t. Duplicates are ignored.
func (t *Type) AddSubtype(sub *Type) {
	for _, s := range t.subtypes {
		if s == sub {
			return
		}
	}
	t.subtypes = append(t.subtypes, sub)
}

func (t *Type) Subtypes() []*Type {
	return append([]*Type(nil), t.subtypes...)
}

// IsSubtypeOf reports whether t was registered as a subtype of other.
func (t *Type) IsSubtypeOf(other Entity) bool {
	sup, ok := other.(*Type)
	if !ok {
		return false
	}
	for _, s := range sup.subtypes {
		if s == t {
			return true
		}
	}
	return false
}

func (t *Type) SourceCode() source.Representation {
	if t.sourceCode == nil {
		return source.Empty()
	}
	return t.sourceCode
}

func (t *Type) SetSourceCode(r source.Representation) {
	t.sourceCode = r
}

func (t *Type) Origins() *Multiset[*Type] { return t.origins }

func (t *Type) AddOrigin(origin *Type, n int) {
	t.origins.AddN(origin, n)
}

// Parameter is a declared method parameter.
type Parameter struct {
	Name string
	Type string
}

// Method covers methods, free functions and constructors. Its key is
// containerKey#signature.
type Method struct {
	entity
	signature   string
	identifier  string
	constructor bool
	abstract    bool
	deprecated  bool
	visibility  Visibility
	parameters  []Parameter
	returnType  string
	statements  int
	sourceCode  source.Representation
	callers     *Multiset[*Method]
	origins     *Multiset[*Method]
	inlinedTo   *Multiset[*Method]
}

func (m *Method) Kind() Kind             { return KindMethod }
func (m *Method) SimpleName() string     { return m.signature }
func (m *Method) Signature() string      { return m.signature }
func (m *Method) Identifier() string     { return m.identifier }
func (m *Method) IsConstructor() bool    { return m.constructor }
func (m *Method) IsAbstract() bool       { return m.abstract }
func (m *Method) SetAbstract(v bool)     { m.abstract = v }
func (m *Method) Deprecated() bool       { return m.deprecated }
func (m *Method) Visibility() Visibility { return m.visibility }
func (m *Method) ReturnType() string     { return m.returnType }
func (m *Method) Statements() int        { return m.statements }

func (m *Method) SetDeprecatedAnnotation(v bool) { m.deprecated = v }
func (m *Method) SetVisibility(v Visibility)     { m.visibility = v }
func (m *Method) SetReturnType(t string)         { m.returnType = t }
func (m *Method) SetStatements(n int)            { m.statements = n }
func (m *Method) AddReference(target Entity)     { target.AddReferencedBy(m) }

// AddReferencedBy routes method callers into the callers multiset; any
// other referencing entity goes to the generic one.
func (m *Method) AddReferencedBy(source Entity) {
	if caller, ok := source.(*Method); ok {
		m.callers.Add(caller)
		return
	}
	m.referencedBy.Add(source)
}

func (m *Method) AddParameter(name, typ string) {
	m.parameters = append(m.parameters, Parameter{Name: name, Type: typ})
}

func (m *Method) Parameters() []Parameter {
	return append([]Parameter(nil), m.parameters...)
}

func (m *Method) Callers() *Multiset[*Method] { return m.callers }

// InvocationsCount is how many times caller invokes m.
func (m *Method) InvocationsCount(caller *Method) int {
	return m.callers.Multiplicity(caller)
}

func (m *Method) Origins() *Multiset[*Method]   { return m.origins }
func (m *Method) InlinedTo() *Multiset[*Method] { return m.inlinedTo }

func (m *Method) AddOrigin(origin *Method, n int) {
	m.origins.AddN(origin, n)
}

func (m *Method) AddInlinedTo(dest *Method, n int) {
	m.inlinedTo.AddN(dest, n)
}

func (m *Method) SourceCode() source.Representation {
	if m.sourceCode == nil {
		return source.Empty()
	}
	return m.sourceCode
}

func (m *Method) SetSourceCode(r source.Representation) {
	m.sourceCode = r
}

// IsGetter is a single-statement method without parameters that returns a value.
func (m *Method) IsGetter() bool {
	return m.statements == 1 && len(m.parameters) == 0 && m.returnType != "" && !m.constructor
}

// IsSetter is a single-statement method with one parameter and no result.
func (m *Method) IsSetter() bool {
	return m.statements == 1 && len(m.parameters) == 1 && m.returnType == "" && !m.constructor
}

// Attribute is a field or package-level variable.
type Attribute struct {
	entity
	name       string
	typ        string
	static     bool
	visibility Visibility
	assignment source.Representation
	clientCode source.Representation
}

func (a *Attribute) Kind() Kind                 { return KindAttribute }
func (a *Attribute) SimpleName() string         { return a.name }
func (a *Attribute) Type() string               { return a.typ }
func (a *Attribute) SetType(t string)           { a.typ = t }
func (a *Attribute) IsStatic() bool             { return a.static }
func (a *Attribute) SetStatic(v bool)           { a.static = v }
func (a *Attribute) Visibility() Visibility     { return a.visibility }
func (a *Attribute) SetVisibility(v Visibility) { a.visibility = v }
func (a *Attribute) AddReference(target Entity) { target.AddReferencedBy(a) }

func (a *Attribute) Assignment() source.Representation {
	if a.assignment == nil {
		return source.Empty()
	}
	return a.assignment
}

func (a *Attribute) SetAssignment(r source.Representation) {
	a.assignment = r
}

func (a *Attribute) ClientCode() source.Representation {
	if a.clientCode == nil {
		return source.Empty()
	}
	return a.clientCode
}

func (a *Attribute) SetClientCode(r source.Representation) {
	a.clientCode = r
}

// SourceCode is the initializer combined with every statement that uses the attribute.
func (a *Attribute) SourceCode() source.Representation {
	return a.Assignment().Combine(a.ClientCode())
}

func methodIdentifier(signature string) string {
	if i := strings.Index(signature, "("); i >= 0 {
		return signature[:i]
	}
	return signature
}
