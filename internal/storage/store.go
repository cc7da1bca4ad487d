package storage

import (
	"context"
	"errors"
	"time"

	"refdiff/internal/model"
)

// ErrRunNotFound is returned by LoadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Store persists comparison runs.
type Store interface {
	RunStore
	Close() error
}

// RunStore defines operations for the history of comparisons.
type RunStore interface {
	// SaveRun stores a run with its refactorings and returns its id.
	SaveRun(ctx context.Context, run Run) (string, error)

	// LoadRun retrieves a run and its refactorings.
	LoadRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns every run, newest first, without refactorings.
	ListRuns(ctx context.Context) ([]Run, error)
}

// Run is one comparison between two sources.
type Run struct {
	ID           string
	CreatedAt    time.Time
	Before       string
	After        string
	Count        int
	Refactorings []Record
}

// Record is the persisted form of a refactoring. Entities are stored by key
// since the model itself is not kept.
type Record struct {
	Kind        string `json:"kind"`
	BeforeKey   string `json:"before"`
	AfterKey    string `json:"after"`
	Description string `json:"description"`
}

func NewRecord(r model.Refactoring) Record {
	return Record{
		Kind:        string(r.Kind),
		BeforeKey:   string(r.Before.Key()),
		AfterKey:    string(r.After.Key()),
		Description: r.Description(),
	}
}

func NewRun(before, after string, refs []model.Refactoring) Run {
	run := Run{Before: before, After: after, Count: len(refs)}
	for _, r := range refs {
		run.Refactorings = append(run.Refactorings, NewRecord(r))
	}
	return run
}
