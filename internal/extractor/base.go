package extractor

import sitter "github.com/smacker/go-tree-sitter"

// LanguageExtractor defines what each language parser must provide.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	PackageClause(root *sitter.Node, sourceCode []byte) string
}
