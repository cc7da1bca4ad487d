package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// atomic node types are emitted as a single token even though the grammar
// gives them children.
var atomic = map[string]bool{
	"interpreted_string_literal": true,
	"raw_string_literal":         true,
	"rune_literal":               true,
}

// tokens returns the leaf tokens of node in source order, without comments.
func tokens(node *sitter.Node, src []byte) []string {
	var out []string
	collect(node, func(n *sitter.Node) bool {
		switch {
		case n.Type() == "comment":
			return false
		case atomic[n.Type()] || n.ChildCount() == 0:
			if tok := strings.TrimSpace(n.Content(src)); tok != "" {
				out = append(out, tok)
			}
			return false
		}
		return true
	})
	return out
}

// bodyTokens drops the braces around a block.
func bodyTokens(block *sitter.Node, src []byte) []string {
	toks := tokens(block, src)
	if len(toks) >= 2 && toks[0] == "{" && toks[len(toks)-1] == "}" {
		return toks[1 : len(toks)-1]
	}
	return toks
}

// countStatements counts every statement nested in block.
func countStatements(block *sitter.Node) int {
	n := 0
	collect(block, func(node *sitter.Node) bool {
		if node.IsNamed() && node.Type() != "comment" && isStatementList(node.Parent()) {
			if node.Type() != "statement_list" {
				n++
			}
		}
		return true
	})
	return n
}

func isStatementList(n *sitter.Node) bool {
	return n != nil && (n.Type() == "block" || n.Type() == "statement_list")
}

// enclosingStatement walks up from node to the statement that holds it.
func enclosingStatement(node *sitter.Node) *sitter.Node {
	for cur := node; cur != nil; cur = cur.Parent() {
		if cur.Type() != "statement_list" && isStatementList(cur.Parent()) {
			return cur
		}
	}
	return node
}

// collect visits node and its descendants depth first. visit returns false
// to skip the children of the node it was given.
func collect(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), visit)
	}
}

func namedChildrenOfType(node *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == nodeType {
			out = append(out, child)
		}
	}
	return out
}
