package main

import (
	"testing"

	"refdiff/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestCommitArgs(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = "/src/project"

	t.Run("Repository from configuration", func(t *testing.T) {
		repo, rev := commitArgs(cfg, []string{"HEAD"})
		assert.Equal(t, "/src/project", repo)
		assert.Equal(t, "HEAD", rev)
	})

	t.Run("Explicit repository", func(t *testing.T) {
		repo, rev := commitArgs(cfg, []string{"../other", "v1.2.0"})
		assert.Equal(t, "../other", repo)
		assert.Equal(t, "v1.2.0", rev)
	})
}
