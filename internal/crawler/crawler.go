package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"refdiff/internal/extractor"

	ignore "github.com/sabhiram/go-gitignore"
)

// Crawler scans a directory for Go source files.
type Crawler struct {
	ignored      []string
	includeTests bool
}

// NewCrawler creates a new crawler instance. Test files are only reported
// when includeTests is set.
func NewCrawler(includeTests bool) *Crawler {
	return &Crawler{
		ignored:      []string{".git", "vendor", "node_modules", "testdata"},
		includeTests: includeTests,
	}
}

// ScanProject walks the root directory and hands every relevant file to
// onFile, with a slash separated path relative to root. Files matched by
// the root .gitignore are skipped.
func (c *Crawler) ScanProject(ctx context.Context, root string, onFile func(extractor.File) error) error {
	gi := loadGitignore(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip ignored directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !c.wants(d.Name()) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		return onFile(extractor.File{Path: rel, Content: content})
	})
}

// Collect is ScanProject gathering every file into a slice.
func (c *Crawler) Collect(ctx context.Context, root string) ([]extractor.File, error) {
	var files []extractor.File
	err := c.ScanProject(ctx, root, func(f extractor.File) error {
		files = append(files, f)
		return nil
	})
	return files, err
}

// Accepts reports whether a slash separated path relative to a project root
// would be scanned. It applies the same rules as ScanProject except for
// .gitignore, so trees read from other places than the filesystem are
// filtered consistently.
func (c *Crawler) Accepts(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		for _, ign := range c.ignored {
			if dir == ign {
				return false
			}
		}
	}
	return c.wants(parts[len(parts)-1])
}

func (c *Crawler) wants(name string) bool {
	if !strings.HasSuffix(name, ".go") {
		return false
	}
	return c.includeTests || !strings.HasSuffix(name, "_test.go")
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
