package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"refdiff/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func pkg(t *testing.T, s *model.Snapshot, name string) *model.Package {
	t.Helper()
	p, err := s.GetOrCreatePackage(name, "")
	require.NoError(t, err)
	return p
}

func testRefactorings(t *testing.T) []model.Refactoring {
	t.Helper()
	m := model.NewModel()
	cart, err := m.Before().CreateType("Cart", pkg(t, m.Before(), "shop"), "shop/cart.go")
	require.NoError(t, err)
	basket, err := m.After().CreateType("Basket", pkg(t, m.After(), "shop"), "shop/cart.go")
	require.NoError(t, err)
	return []model.Refactoring{{Kind: model.RefactoringRenameClass, Before: cart, After: basket}}
}

func TestSQLiteStore_SaveAndLoadRun(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, NewRun("v1", "v2", testRefactorings(t)))
	require.NoError(t, err)
	assert.Len(t, id, 36, "uuid")

	run, err := store.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "v1", run.Before)
	assert.Equal(t, "v2", run.After)
	assert.Equal(t, 1, run.Count)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)
	assert.Equal(t, []Record{{
		Kind:        "Rename Class",
		BeforeKey:   "shop.Cart",
		AfterKey:    "shop.Basket",
		Description: "Rename Class shop.Cart renamed to shop.Basket",
	}}, run.Refactorings)
}

func TestSQLiteStore_LoadRun_NotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.LoadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	older := Run{ID: "older", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Before: "a", After: "b"}
	newer := NewRun("b", "c", testRefactorings(t))
	newer.ID = "newer"
	newer.CreatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []Run{older, newer} {
		_, err := store.SaveRun(ctx, r)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "newer", runs[0].ID)
	assert.Equal(t, 1, runs[0].Count)
	assert.Empty(t, runs[0].Refactorings)
	assert.Equal(t, "older", runs[1].ID)
	assert.Zero(t, runs[1].Count)

	_, err = store.SaveRun(ctx, older)
	assert.Error(t, err, "duplicate id")
}

func TestSQLiteStore_ListRuns_SameSecond(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	second := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, r := range []Run{
		{ID: "whole", CreatedAt: second},
		{ID: "fraction", CreatedAt: second.Add(100 * time.Millisecond)},
	} {
		_, err := store.SaveRun(ctx, r)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "fraction", runs[0].ID)
	assert.Equal(t, "whole", runs[1].ID)
	assert.True(t, runs[1].CreatedAt.Equal(second))
}
