package pipeline

import (
	"context"
	"fmt"
	"path"

	"refdiff/internal/crawler"
	"refdiff/internal/extractor"
	"refdiff/internal/git"
)

// FileSource yields the files of one side of a comparison.
type FileSource interface {
	Name() string
	Files(ctx context.Context) ([]extractor.File, error)
}

// DirSource reads a directory tree from disk.
type DirSource struct {
	Root    string
	Crawler *crawler.Crawler
}

func NewDirSource(root string, includeTests bool) *DirSource {
	return &DirSource{Root: root, Crawler: crawler.NewCrawler(includeTests)}
}

func (s *DirSource) Name() string { return s.Root }

func (s *DirSource) Files(ctx context.Context) ([]extractor.File, error) {
	files, err := s.Crawler.Collect(ctx, s.Root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.Root, err)
	}
	return files, nil
}

// GitSource reads the tree of a revision without touching the work tree.
// When Dirs is set only files directly inside those directories are read.
type GitSource struct {
	Repo    *git.Repo
	Rev     string
	Crawler *crawler.Crawler
	Dirs    map[string]bool
}

func NewGitSource(repo *git.Repo, rev string, includeTests bool) *GitSource {
	return &GitSource{Repo: repo, Rev: rev, Crawler: crawler.NewCrawler(includeTests)}
}

func (s *GitSource) Name() string { return s.Rev }

func (s *GitSource) Files(ctx context.Context) ([]extractor.File, error) {
	paths, err := s.Repo.ListFiles(ctx, s.Rev)
	if err != nil {
		return nil, err
	}

	var files []extractor.File
	for _, p := range paths {
		if !s.Crawler.Accepts(p) {
			continue
		}
		if s.Dirs != nil && !s.Dirs[path.Dir(p)] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := s.Repo.ReadFile(ctx, s.Rev, p)
		if err != nil {
			return nil, err
		}
		files = append(files, extractor.File{Path: p, Content: content})
	}
	return files, nil
}

// ChangedDirs returns the directories holding a Go file touched between two
// revisions, including the old location of renamed files.
func ChangedDirs(ctx context.Context, repo *git.Repo, from, to string) (map[string]bool, error) {
	changes, err := repo.GetChangedFiles(ctx, from, to)
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]bool)
	for _, c := range changes {
		for _, p := range []string{c.Path, c.OldPath} {
			if path.Ext(p) == ".go" {
				dirs[path.Dir(p)] = true
			}
		}
	}
	return dirs, nil
}
