package extractor

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"refdiff/internal/model"
	"refdiff/internal/source"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) PackageClause(root *sitter.Node, sourceCode []byte) string {
	pkgQuery, err := sitter.NewQuery([]byte(`(package_clause (package_identifier) @pkg)`), g.GetLanguage())
	if err != nil {
		return ""
	}
	pqc := sitter.NewQueryCursor()
	pqc.Exec(pkgQuery, root)
	if m, ok := pqc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(sourceCode)
	}
	return ""
}

// builder maps Go syntax onto model entities for a single snapshot.
type builder struct {
	snap       *model.Snapshot
	duplicates int

	typeDecls  []typeDecl
	typeText   map[*model.Type]*strings.Builder
	embeddings []embedding
	bodies     []methodBody
	anonymous  map[*model.Type]int
}

type typeDecl struct {
	typ  *model.Type
	node *sitter.Node
	pf   *parsedFile
}

// embedding records a struct or interface that embeds another type by name.
type embedding struct {
	sub *model.Type
	ref string
	pkg *model.Package
}

type methodBody struct {
	method   *model.Method
	receiver string
	recvType *model.Type
	body     *sitter.Node
	pf       *parsedFile
}

func newBuilder(snap *model.Snapshot) *builder {
	return &builder{
		snap:      snap,
		typeText:  make(map[*model.Type]*strings.Builder),
		anonymous: make(map[*model.Type]int),
	}
}

// declareTypes creates one Type per top-level type_spec of pf.
func (b *builder) declareTypes(pf *parsedFile) error {
	for i := 0; i < int(pf.root.NamedChildCount()); i++ {
		decl := pf.root.NamedChild(i)
		if decl.Type() != "type_declaration" {
			continue
		}
		specs := namedChildrenOfType(decl, "type_spec")
		for _, spec := range specs {
			nameNode := spec.ChildByFieldName("name")
			typeNode := spec.ChildByFieldName("type")
			if nameNode == nil || typeNode == nil {
				continue
			}
			typ, err := b.snap.CreateType(nameNode.Content(pf.src), pf.pkg, pf.path)
			if err != nil {
				if b.isDuplicate(err) {
					continue
				}
				return err
			}
			typ.SetInterface(typeNode.Type() == "interface_type")
			if pf.testCode {
				typ.SetTestCode(true)
			}

			textNode, doc := spec, docComment(spec, pf.src)
			if len(specs) == 1 {
				textNode = decl
				if doc == "" {
					doc = docComment(decl, pf.src)
				}
			}
			typ.SetDeprecatedAnnotation(isDeprecated(doc))
			b.appendTypeText(typ, textNode.Content(pf.src))
			b.typeDecls = append(b.typeDecls, typeDecl{typ: typ, node: typeNode, pf: pf})
		}
	}
	return nil
}

// declareTypeMembers creates struct fields and interface methods once every
// type of the snapshot is known.
func (b *builder) declareTypeMembers() error {
	for _, td := range b.typeDecls {
		var err error
		switch td.node.Type() {
		case "struct_type":
			err = b.declareFields(td.typ, td.typ, td.node, td.pf)
		case "interface_type":
			err = b.declareInterface(td.typ, td.node, td.pf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// declareFields turns the fields of structNode into attributes of owner.
// Inline struct types become anonymous types numbered under top.
func (b *builder) declareFields(top, owner *model.Type, structNode *sitter.Node, pf *parsedFile) error {
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.NamedChildCount()); i++ {
		if child := structNode.NamedChild(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return nil
	}

	for _, fd := range namedChildrenOfType(fieldList, "field_declaration") {
		typeNode := fd.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		fieldType := normalize(typeNode.Content(pf.src))

		names := namedChildrenOfType(fd, "field_identifier")
		var fieldNames []string
		for _, n := range names {
			fieldNames = append(fieldNames, n.Content(pf.src))
		}
		if len(fieldNames) == 0 {
			b.embeddings = append(b.embeddings, embedding{sub: owner, ref: fieldType, pkg: pf.pkg})
			fieldNames = append(fieldNames, embeddedName(fieldType))
		}

		for _, name := range fieldNames {
			attr, err := b.snap.CreateAttribute(name, owner)
			if err != nil {
				if b.isDuplicate(err) {
					continue
				}
				return err
			}
			attr.SetType(fieldType)
			attr.SetVisibility(visibilityOf(name))
		}

		if typeNode.Type() == "struct_type" {
			b.anonymous[top]++
			anon, err := b.snap.CreateAnonymousType(owner, pf.path, strconv.Itoa(b.anonymous[top]))
			if err != nil {
				if b.isDuplicate(err) {
					continue
				}
				return err
			}
			if err := b.declareFields(top, anon, typeNode, pf); err != nil {
				return err
			}
		}
	}
	return nil
}

// declareInterface creates abstract methods for the method elements of an
// interface and records embedded interfaces.
func (b *builder) declareInterface(iface *model.Type, node *sitter.Node, pf *parsedFile) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "method_elem", "method_spec":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(pf.src)
			params := parameters(child.ChildByFieldName("parameters"), pf.src)
			m, err := b.snap.CreateMethod(signature(name, params), iface, false)
			if err != nil {
				if b.isDuplicate(err) {
					continue
				}
				return err
			}
			for _, p := range params {
				m.AddParameter(p.Name, p.Type)
			}
			if result := child.ChildByFieldName("result"); result != nil {
				m.SetReturnType(normalize(result.Content(pf.src)))
			}
			m.SetAbstract(true)
			m.SetVisibility(visibilityOf(name))
			m.SetDeprecatedAnnotation(isDeprecated(docComment(child, pf.src)))
		case "type_elem":
			if child.NamedChildCount() == 1 {
				b.embedInterface(iface, child.NamedChild(0), pf)
			}
		case "type_identifier", "qualified_type":
			b.embedInterface(iface, child, pf)
		}
	}
	return nil
}

func (b *builder) embedInterface(iface *model.Type, node *sitter.Node, pf *parsedFile) {
	switch node.Type() {
	case "type_identifier", "qualified_type", "generic_type":
		b.embeddings = append(b.embeddings, embedding{sub: iface, ref: node.Content(pf.src), pkg: pf.pkg})
	}
}

// declareMembers creates functions, methods and package level variables.
func (b *builder) declareMembers(pf *parsedFile) error {
	for i := 0; i < int(pf.root.NamedChildCount()); i++ {
		node := pf.root.NamedChild(i)
		var err error
		switch node.Type() {
		case "function_declaration":
			err = b.declareFunction(node, pf, pf.pkg, "", nil)
		case "method_declaration":
			recvName, recvType := b.receiver(node, pf)
			var container model.Entity = pf.pkg
			if recvType != nil {
				container = recvType
			}
			err = b.declareFunction(node, pf, container, recvName, recvType)
		case "var_declaration", "const_declaration":
			err = b.declareVars(node, pf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) declareFunction(node *sitter.Node, pf *parsedFile, container model.Entity, recvName string, recvType *model.Type) error {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(pf.src)
	params := parameters(node.ChildByFieldName("parameters"), pf.src)
	constructor := recvType == nil && strings.HasPrefix(name, "New")

	m, err := b.snap.CreateMethod(signature(name, params), container, constructor)
	if err != nil {
		if b.isDuplicate(err) {
			return nil
		}
		return err
	}
	for _, p := range params {
		m.AddParameter(p.Name, p.Type)
	}
	if result := node.ChildByFieldName("result"); result != nil {
		m.SetReturnType(normalize(result.Content(pf.src)))
	}
	m.SetVisibility(visibilityOf(name))
	m.SetDeprecatedAnnotation(isDeprecated(docComment(node, pf.src)))
	if pf.testCode {
		m.SetTestCode(true)
	}
	if recvType != nil {
		b.appendTypeText(recvType, node.Content(pf.src))
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		m.SetAbstract(true)
		return nil
	}
	m.SetStatements(countStatements(body))
	m.SetSourceCode(source.FromTokens(bodyTokens(body, pf.src)))
	b.bodies = append(b.bodies, methodBody{method: m, receiver: recvName, recvType: recvType, body: body, pf: pf})
	return nil
}

// receiver returns the receiver variable name and the type it binds to, if
// that type was declared in the same package.
func (b *builder) receiver(node *sitter.Node, pf *parsedFile) (string, *model.Type) {
	list := node.ChildByFieldName("receiver")
	if list == nil {
		return "", nil
	}
	decls := namedChildrenOfType(list, "parameter_declaration")
	if len(decls) == 0 {
		return "", nil
	}
	var recvName string
	if ids := namedChildrenOfType(decls[0], "identifier"); len(ids) > 0 {
		recvName = ids[0].Content(pf.src)
	}
	typeNode := decls[0].ChildByFieldName("type")
	if typeNode == nil {
		return recvName, nil
	}
	typeName := embeddedName(typeNode.Content(pf.src))
	typ, ok := model.FindByName[*model.Type](b.snap, pf.pkg.FullName()+"."+typeName)
	if !ok {
		return recvName, nil
	}
	return recvName, typ
}

// declareVars creates static attributes for every name of a var or const
// declaration.
func (b *builder) declareVars(decl *sitter.Node, pf *parsedFile) error {
	var specs []*sitter.Node
	collect(decl, func(n *sitter.Node) bool {
		if n.Type() == "var_spec" || n.Type() == "const_spec" {
			specs = append(specs, n)
			return false
		}
		return true
	})

	for _, spec := range specs {
		var specType string
		if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
			specType = normalize(typeNode.Content(pf.src))
		}
		var values []*sitter.Node
		if valueNode := spec.ChildByFieldName("value"); valueNode != nil {
			for i := 0; i < int(valueNode.NamedChildCount()); i++ {
				if v := valueNode.NamedChild(i); v.Type() != "comment" {
					values = append(values, v)
				}
			}
		}

		for i, id := range namedChildrenOfType(spec, "identifier") {
			name := id.Content(pf.src)
			if name == "_" {
				continue
			}
			attr, err := b.snap.CreateAttribute(name, pf.pkg)
			if err != nil {
				if b.isDuplicate(err) {
					continue
				}
				return err
			}
			attr.SetStatic(true)
			attr.SetType(specType)
			attr.SetVisibility(visibilityOf(name))
			if pf.testCode {
				attr.SetTestCode(true)
			}
			if i < len(values) {
				attr.SetAssignment(source.FromTokens(tokens(values[i], pf.src)))
			}
		}
	}
	return nil
}

func (b *builder) appendTypeText(typ *model.Type, text string) {
	sb, ok := b.typeText[typ]
	if !ok {
		sb = &strings.Builder{}
		b.typeText[typ] = sb
	}
	sb.WriteString(text)
	sb.WriteString("\n")
}

func parameters(list *sitter.Node, src []byte) []model.Parameter {
	if list == nil {
		return nil
	}
	var params []model.Parameter
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		if decl.Type() != "parameter_declaration" && decl.Type() != "variadic_parameter_declaration" {
			continue
		}
		var pType string
		if tn := decl.ChildByFieldName("type"); tn != nil {
			pType = normalize(tn.Content(src))
		}
		if decl.Type() == "variadic_parameter_declaration" {
			pType = "..." + pType
		}
		names := namedChildrenOfType(decl, "identifier")
		if len(names) == 0 {
			params = append(params, model.Parameter{Type: pType})
			continue
		}
		for _, n := range names {
			params = append(params, model.Parameter{Name: n.Content(src), Type: pType})
		}
	}
	return params
}

// signature renders name(type,...), the identity of a method in its container.
func signature(name string, params []model.Parameter) string {
	types := make([]string, 0, len(params))
	for _, p := range params {
		types = append(types, p.Type)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func visibilityOf(name string) model.Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return model.VisibilityPublic
	}
	return model.VisibilityPackage
}

// embeddedName reduces a type expression such as *pkg.Base[T] to Base.
func embeddedName(typeExpr string) string {
	name := strings.TrimLeft(typeExpr, "*")
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isDeprecated(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "Deprecated:") {
			return true
		}
	}
	return false
}

func docComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}
