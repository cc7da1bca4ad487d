package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func paths(t *testing.T, c *Crawler, root string) []string {
	t.Helper()
	files, err := c.Collect(context.Background(), root)
	require.NoError(t, err)
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "internal/app/app.go", "package app\n")
	writeFile(t, root, "internal/app/app_test.go", "package app\n")
	writeFile(t, root, "internal/app/README.md", "# app\n")
	writeFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeFile(t, root, "internal/app/testdata/fixture.go", "package fixture\n")
	writeFile(t, root, "gen/generated.go", "package gen\n")
	writeFile(t, root, "tmp_scratch.go", "package main\n")
	writeFile(t, root, ".gitignore", "gen/\ntmp_*.go\n")

	t.Run("Without tests", func(t *testing.T) {
		assert.Equal(t, []string{"internal/app/app.go", "main.go"}, paths(t, NewCrawler(false), root))
	})

	t.Run("With tests", func(t *testing.T) {
		assert.Equal(t, []string{"internal/app/app.go", "internal/app/app_test.go", "main.go"}, paths(t, NewCrawler(true), root))
	})

	t.Run("Content is read", func(t *testing.T) {
		files, err := NewCrawler(false).Collect(context.Background(), root)
		require.NoError(t, err)
		require.NotEmpty(t, files)
		assert.Equal(t, "package app\n", string(files[0].Content))
	})
}

func TestCrawler_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCrawler(false).Collect(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrawler_Accepts(t *testing.T) {
	c := NewCrawler(false)
	assert.True(t, c.Accepts("main.go"))
	assert.True(t, c.Accepts("internal/model/model.go"))
	assert.False(t, c.Accepts("internal/model/model_test.go"))
	assert.False(t, c.Accepts("vendor/pkg/a.go"))
	assert.False(t, c.Accepts("internal/extractor/testdata/sample.go"))
	assert.False(t, c.Accepts("README.md"))

	assert.True(t, NewCrawler(true).Accepts("internal/model/model_test.go"))
}
