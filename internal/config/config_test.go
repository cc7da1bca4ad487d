package config

import (
	"os"
	"path/filepath"
	"testing"

	"refdiff/internal/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, detector.DefaultThresholds(), cfg.Thresholds)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./repo
  include_tests: true
thresholds:
  move_method: 0.7
storage:
  path: runs.db
report:
  format: markdown
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./repo", cfg.Project.Root)
	assert.True(t, cfg.Project.IncludeTests)
	assert.Equal(t, "runs.db", cfg.Storage.Path)
	assert.Equal(t, "markdown", cfg.Report.Format)
	assert.InDelta(t, 0.7, cfg.Thresholds.MoveMethod, 1e-9)
	assert.InDelta(t, 0.4, cfg.Thresholds.MoveType, 1e-9, "unset thresholds keep their defaults")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("REFDIFF_DB", "/tmp/override.db")
	t.Setenv("REFDIFF_SOURCE_FOLDER", "src/")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.Path)
	assert.Equal(t, "src/", cfg.Project.SourceFolder)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("Malformed YAML", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("project: ["), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Threshold out of range", func(t *testing.T) {
		path := filepath.Join(dir, "range.yaml")
		require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  extract_method: 2\n"), 0o644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "extract_method")
	})
}
