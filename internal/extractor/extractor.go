package extractor

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"refdiff/internal/model"

	sitter "github.com/smacker/go-tree-sitter"
)

// File is a source file handed to the extractor. Path is slash separated and
// relative to the project root.
type File struct {
	Path    string
	Content []byte
}

// Stats summarises one Populate call.
type Stats struct {
	Files      int
	Duplicates int
}

// Extractor orchestrates the extraction process using a language-specific
// extractor and writes the result into a model snapshot.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
	sourceFolder  string
}

// NewExtractor creates a new extractor for a given language. sourceFolder is
// prefixed to every package key.
func NewExtractor(lang, sourceFolder string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "go":
		langExt = &GoExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang, sourceFolder: sourceFolder}, nil
}

// Populate parses files and creates their packages, types, methods and
// attributes in snap. Declarations whose key is already taken (build tag
// variants, repeated init functions) are skipped and counted.
func (e *Extractor) Populate(ctx context.Context, snap *model.Snapshot, files []File) (Stats, error) {
	var stats Stats

	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	var parsed []*parsedFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		tree, err := parser.ParseCtx(ctx, nil, f.Content)
		if err != nil {
			return stats, fmt.Errorf("failed to parse file %s: %w", f.Path, err)
		}
		pf := &parsedFile{
			path:     f.Path,
			src:      f.Content,
			root:     tree.RootNode(),
			testCode: strings.HasSuffix(f.Path, "_test.go"),
		}
		if pf.pkg, err = snap.GetOrCreatePackage(e.packageName(pf), e.sourceFolder); err != nil {
			return stats, fmt.Errorf("failed to declare package of %s: %w", f.Path, err)
		}
		parsed = append(parsed, pf)
		stats.Files++
	}

	b := newBuilder(snap)
	for _, pf := range parsed {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := b.declareTypes(pf); err != nil {
			return stats, err
		}
	}
	if err := b.declareTypeMembers(); err != nil {
		return stats, err
	}
	for _, pf := range parsed {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := b.declareMembers(pf); err != nil {
			return stats, err
		}
	}
	b.resolve()

	stats.Duplicates = b.duplicates
	return stats, nil
}

// packageName is the directory of the file, or the package clause when the
// file sits at the project root.
func (e *Extractor) packageName(pf *parsedFile) string {
	if dir := path.Dir(pf.path); dir != "." && dir != "/" {
		return strings.TrimPrefix(dir, "./")
	}
	if name := e.langExtractor.PackageClause(pf.root, pf.src); name != "" {
		return name
	}
	return "main"
}

type parsedFile struct {
	path     string
	src      []byte
	root     *sitter.Node
	pkg      *model.Package
	testCode bool
}

// isDuplicate reports whether err is a key collision, counting it.
func (b *builder) isDuplicate(err error) bool {
	if errors.Is(err, model.ErrDuplicateEntity) {
		b.duplicates++
		return true
	}
	return false
}
