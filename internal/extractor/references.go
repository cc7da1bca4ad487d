package extractor

import (
	"strings"

	"refdiff/internal/model"
	"refdiff/internal/source"

	sitter "github.com/smacker/go-tree-sitter"
)

// resolve runs after every declaration exists: it wires subtypes, source
// representations of types, and the references found in method bodies.
func (b *builder) resolve() {
	idx := newIndex(b.snap)

	for typ, text := range b.typeText {
		typ.SetSourceCode(source.FromLines(text.String()))
	}

	for _, e := range b.embeddings {
		if target, ok := idx.lookupType(e.pkg, e.ref); ok && target != e.sub {
			target.AddSubtype(e.sub)
			e.sub.AddReference(target)
		}
	}
	b.implicitInterfaces()

	for _, td := range b.typeDecls {
		collect(td.node, func(n *sitter.Node) bool {
			if n.Type() == "type_identifier" || n.Type() == "qualified_type" {
				if target, ok := idx.lookupType(td.pf.pkg, n.Content(td.pf.src)); ok && target != td.typ {
					td.typ.AddReference(target)
				}
				return false
			}
			return true
		})
	}

	clientCode := make(map[*model.Attribute][]source.Representation)
	for _, mb := range b.bodies {
		r := &bodyResolver{idx: idx, mb: mb, clientCode: clientCode}
		r.walk(mb.body)
	}
	for attr, fragments := range clientCode {
		attr.SetClientCode(attr.ClientCode().Combine(fragments...))
	}
}

// implicitInterfaces registers every concrete type whose method set covers
// the methods of an interface as a subtype of that interface.
func (b *builder) implicitInterfaces() {
	methodSets := make(map[*model.Type]map[string]bool)
	for _, typ := range b.snap.Types() {
		set := make(map[string]bool)
		for _, child := range b.snap.Children(typ) {
			if m, ok := child.(*model.Method); ok {
				set[m.Signature()] = true
			}
		}
		methodSets[typ] = set
	}

	for _, iface := range b.snap.Types() {
		required := methodSets[iface]
		if !iface.IsInterface() || len(required) == 0 {
			continue
		}
		for _, typ := range b.snap.Types() {
			if typ.IsInterface() || typ.IsAnonymous() {
				continue
			}
			if covers(methodSets[typ], required) {
				iface.AddSubtype(typ)
			}
		}
	}
}

func covers(have, want map[string]bool) bool {
	for sig := range want {
		if !have[sig] {
			return false
		}
	}
	return true
}

// index groups snapshot entities by the identifier used to refer to them.
type index struct {
	methods    map[string][]*model.Method
	attributes map[string][]*model.Attribute
	types      map[string][]*model.Type
}

func newIndex(snap *model.Snapshot) *index {
	idx := &index{
		methods:    make(map[string][]*model.Method),
		attributes: make(map[string][]*model.Attribute),
		types:      make(map[string][]*model.Type),
	}
	for _, m := range snap.Methods() {
		idx.methods[m.Identifier()] = append(idx.methods[m.Identifier()], m)
	}
	for _, a := range snap.Attributes() {
		idx.attributes[a.SimpleName()] = append(idx.attributes[a.SimpleName()], a)
	}
	for _, t := range snap.Types() {
		if !t.IsAnonymous() {
			idx.types[t.SimpleName()] = append(idx.types[t.SimpleName()], t)
		}
	}
	return idx
}

// lookupType resolves a type expression seen in pkg: a qualified name looks
// in packages with that name, otherwise the same package wins over a unique
// match anywhere.
func (idx *index) lookupType(pkg *model.Package, ref string) (*model.Type, bool) {
	name := embeddedName(ref)
	qualifier := qualifierOf(ref)
	cands := idx.types[name]
	if qualifier != "" {
		return pick(cands, inPackageNamed[*model.Type](qualifier))
	}
	return pick(cands, inPackage[*model.Type](pkg), anywhere[*model.Type]())
}

func qualifierOf(ref string) string {
	ref = strings.TrimLeft(ref, "*")
	if i := strings.Index(ref, "["); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[:i]
	}
	return ""
}

// pick returns the only candidate accepted by the first tier that accepts
// any. A tier accepting several candidates is ambiguous and ends the search.
func pick[T model.Entity](cands []T, tiers ...model.Filter[T]) (T, bool) {
	var zero T
	for _, tier := range tiers {
		matches := model.Select(cands, tier)
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], true
		default:
			return zero, false
		}
	}
	return zero, false
}

func packageOf(e model.Entity) *model.Package {
	for cur := e; cur != nil; cur = cur.Container() {
		if p, ok := cur.(*model.Package); ok {
			return p
		}
	}
	return nil
}

func inPackage[T model.Entity](pkg *model.Package) model.Filter[T] {
	return func(e T) bool { return packageOf(e) == pkg }
}

func inPackageNamed[T model.Entity](name string) model.Filter[T] {
	return func(e T) bool {
		p := packageOf(e)
		return p != nil && p.SimpleName() == name
	}
}

func directlyIn[T model.Entity](container model.Entity) model.Filter[T] {
	return func(e T) bool { return e.Container() == container }
}

func anywhere[T model.Entity]() model.Filter[T] {
	return func(T) bool { return true }
}

// bodyResolver records the calls and field accesses of one method body.
type bodyResolver struct {
	idx        *index
	mb         methodBody
	clientCode map[*model.Attribute][]source.Representation
}

func (r *bodyResolver) walk(node *sitter.Node) {
	src := r.mb.pf.src
	collect(node, func(n *sitter.Node) bool {
		switch n.Type() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return true
			}
			switch fn.Type() {
			case "identifier":
				r.call("", fn.Content(src))
			case "selector_expression":
				operand, field := fn.ChildByFieldName("operand"), fn.ChildByFieldName("field")
				if operand != nil && field != nil {
					r.call(operand.Content(src), field.Content(src))
					r.walk(operand)
				}
			default:
				r.walk(fn)
			}
			if args := n.ChildByFieldName("arguments"); args != nil {
				r.walk(args)
			}
			return false
		case "selector_expression":
			operand, field := n.ChildByFieldName("operand"), n.ChildByFieldName("field")
			if operand != nil && field != nil {
				r.field(n, operand.Content(src), field.Content(src))
				r.walk(operand)
			}
			return false
		case "identifier":
			r.packageVariable(n, n.Content(src))
			return false
		}
		return true
	})
}

func (r *bodyResolver) call(operand, name string) {
	cands := r.idx.methods[name]
	if len(cands) == 0 {
		return
	}
	pkg := r.mb.pf.pkg

	var callee *model.Method
	var ok bool
	switch {
	case operand == "":
		callee, ok = pick(cands, directlyIn[*model.Method](pkg))
	case operand == r.mb.receiver && r.mb.recvType != nil:
		callee, ok = pick(cands,
			directlyIn[*model.Method](r.mb.recvType),
			inPackage[*model.Method](pkg))
	default:
		callee, ok = pick(cands,
			inPackageNamed[*model.Method](operand).And(isFunction),
			inPackage[*model.Method](pkg),
			anywhere[*model.Method]())
	}
	if ok {
		r.mb.method.AddReference(callee)
	}
}

func isFunction(m *model.Method) bool {
	_, ok := m.Container().(*model.Package)
	return ok
}

func (r *bodyResolver) field(node *sitter.Node, operand, name string) {
	cands := r.idx.attributes[name]
	if len(cands) == 0 {
		return
	}
	var attr *model.Attribute
	var ok bool
	if operand == r.mb.receiver && r.mb.recvType != nil {
		attr, ok = pick(cands,
			directlyIn[*model.Attribute](r.mb.recvType),
			inPackage[*model.Attribute](r.mb.pf.pkg))
	} else {
		attr, ok = pick(cands,
			inPackageNamed[*model.Attribute](operand).And(isStatic),
			inPackage[*model.Attribute](r.mb.pf.pkg),
			anywhere[*model.Attribute]())
	}
	if ok {
		r.access(node, attr)
	}
}

// packageVariable resolves a bare identifier against the static attributes
// of the enclosing package.
func (r *bodyResolver) packageVariable(node *sitter.Node, name string) {
	attr, ok := pick(r.idx.attributes[name], directlyIn[*model.Attribute](r.mb.pf.pkg))
	if ok {
		r.access(node, attr)
	}
}

func isStatic(a *model.Attribute) bool { return a.IsStatic() }

func (r *bodyResolver) access(node *sitter.Node, attr *model.Attribute) {
	r.mb.method.AddReference(attr)
	stmt := enclosingStatement(node)
	r.clientCode[attr] = append(r.clientCode[attr], source.FromTokens(tokens(stmt, r.mb.pf.src)))
}
