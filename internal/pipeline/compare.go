// Package pipeline runs a full comparison: both snapshots are extracted,
// the model is initialized and the detector reports the refactorings.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"refdiff/internal/detector"
	"refdiff/internal/extractor"
	"refdiff/internal/model"
)

type Options struct {
	Language     string
	SourceFolder string
	Thresholds   detector.Thresholds
}

func DefaultOptions() Options {
	return Options{
		Language:   "go",
		Thresholds: detector.DefaultThresholds(),
	}
}

type Timings struct {
	Extract time.Duration
	Detect  time.Duration
}

type Result struct {
	Model        *model.Model
	Refactorings []model.Refactoring
	Before       extractor.Stats
	After        extractor.Stats
	Timings      Timings
}

// Compare extracts before and after into a fresh model and runs detection.
func Compare(ctx context.Context, before, after FileSource, opts Options) (*Result, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	ext, err := extractor.NewExtractor(opts.Language, opts.SourceFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	m := model.NewModel()
	res := &Result{Model: m}

	start := time.Now()
	if res.Before, err = extractStage(ctx, ext, m.Before(), before); err != nil {
		return nil, err
	}
	if res.After, err = extractStage(ctx, ext, m.After(), after); err != nil {
		return nil, err
	}
	res.Timings.Extract = time.Since(start)

	if err := m.InitRelationships(); err != nil {
		return nil, err
	}

	start = time.Now()
	if err := detector.New(opts.Thresholds).Analyze(ctx, m); err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	res.Timings.Detect = time.Since(start)
	res.Refactorings = m.Refactorings()
	return res, nil
}

func extractStage(ctx context.Context, ext *extractor.Extractor, snap *model.Snapshot, src FileSource) (extractor.Stats, error) {
	files, err := src.Files(ctx)
	if err != nil {
		return extractor.Stats{}, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	stats, err := ext.Populate(ctx, snap, files)
	if err != nil {
		return extractor.Stats{}, fmt.Errorf("failed to extract %s: %w", src.Name(), err)
	}
	return stats, nil
}
