package detector

import (
	"context"
	"strings"
	"testing"

	"refdiff/internal/model"
	"refdiff/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func code(s string) source.Representation {
	return source.FromTokens(strings.Fields(s))
}

func pkgOf(t *testing.T, s *model.Snapshot, name string) *model.Package {
	t.Helper()
	p, err := s.GetOrCreatePackage(name, "")
	require.NoError(t, err)
	return p
}

func newType(t *testing.T, s *model.Snapshot, pkg, name, body string) *model.Type {
	t.Helper()
	typ, err := s.CreateType(name, pkgOf(t, s, pkg), pkg+"/"+strings.ToLower(name)+".go")
	require.NoError(t, err)
	typ.SetSourceCode(code(body))
	return typ
}

func newMethod(t *testing.T, s *model.Snapshot, container model.Entity, sig, body string) *model.Method {
	t.Helper()
	m, err := s.CreateMethod(sig, container, false)
	require.NoError(t, err)
	m.SetSourceCode(code(body))
	m.SetStatements(len(strings.Fields(body)))
	return m
}

func analyze(t *testing.T, m *model.Model) []model.Refactoring {
	t.Helper()
	require.NoError(t, m.InitRelationships())
	require.NoError(t, New(DefaultThresholds()).Analyze(context.Background(), m))
	return m.Refactorings()
}

func kinds(refs []model.Refactoring) []model.RefactoringKind {
	var out []model.RefactoringKind
	for _, r := range refs {
		out = append(out, r.Kind)
	}
	return out
}

func TestDetector_Types(t *testing.T) {
	t.Run("Rename", func(t *testing.T) {
		m := model.NewModel()
		oldT := newType(t, m.Before(), "pkg", "Old", "a b c d")
		newT := newType(t, m.After(), "pkg", "New", "a b c d")

		refs := analyze(t, m)
		require.Len(t, refs, 1)
		assert.Equal(t, model.RefactoringRenameClass, refs[0].Kind)
		assert.True(t, m.EntitiesMatch(oldT, newT))
	})

	t.Run("Move cascades to members", func(t *testing.T) {
		m := model.NewModel()
		fooB := newType(t, m.Before(), "a", "Foo", "a b c d")
		runB := newMethod(t, m.Before(), fooB, "run()", "x y")
		fooA := newType(t, m.After(), "b", "Foo", "a b c e")
		runA := newMethod(t, m.After(), fooA, "run()", "x y")

		refs := analyze(t, m)
		assert.Equal(t, []model.RefactoringKind{model.RefactoringMoveClass}, kinds(refs))
		assert.Equal(t, "Move Class a.Foo moved to b.Foo", refs[0].Description())
		assert.True(t, m.HasRelationship(model.Same, runB, runA))
	})

	t.Run("Move and rename", func(t *testing.T) {
		m := model.NewModel()
		newType(t, m.Before(), "a", "Foo", "a b c d")
		newType(t, m.After(), "b", "Bar", "a b c d")

		assert.Equal(t, []model.RefactoringKind{model.RefactoringMoveAndRenameClass}, kinds(analyze(t, m)))
	})

	t.Run("Below threshold", func(t *testing.T) {
		m := model.NewModel()
		oldT := newType(t, m.Before(), "pkg", "Old", "a b c d")
		newT := newType(t, m.After(), "pkg", "New", "w x y z")

		assert.Empty(t, analyze(t, m))
		assert.False(t, m.IsMatched(oldT))
		assert.False(t, m.IsMatched(newT))
	})
}

func TestDetector_Methods(t *testing.T) {
	t.Run("Rename", func(t *testing.T) {
		m := model.NewModel()
		tB := newType(t, m.Before(), "pkg", "T", "")
		compute := newMethod(t, m.Before(), tB, "compute()", "x y z")
		tA := newType(t, m.After(), "pkg", "T", "")
		calculate := newMethod(t, m.After(), tA, "calculate()", "x y z")

		refs := analyze(t, m)
		require.Len(t, refs, 1)
		assert.Equal(t, model.RefactoringRenameMethod, refs[0].Kind)
		assert.Same(t, compute, refs[0].Before)
		assert.Same(t, calculate, refs[0].After)
	})

	t.Run("Signature change is matched silently", func(t *testing.T) {
		m := model.NewModel()
		tB := newType(t, m.Before(), "pkg", "T", "")
		runB := newMethod(t, m.Before(), tB, "run(int)", "x y z")
		tA := newType(t, m.After(), "pkg", "T", "")
		runA := newMethod(t, m.After(), tA, "run(int,string)", "x y z w")

		assert.Empty(t, analyze(t, m))
		assert.True(t, m.HasRelationship(model.ChangeMethodSignature, runB, runA))
	})

	t.Run("Move to several targets", func(t *testing.T) {
		m := model.NewModel()
		aB := newType(t, m.Before(), "pkg", "A", "")
		newType(t, m.Before(), "pkg", "B", "")
		newType(t, m.Before(), "pkg", "C", "")
		helper := newMethod(t, m.Before(), aB, "helper()", "x y z")
		newType(t, m.After(), "pkg", "A", "")
		bA := newType(t, m.After(), "pkg", "B", "")
		cA := newType(t, m.After(), "pkg", "C", "")
		toB := newMethod(t, m.After(), bA, "helper()", "x y z")
		toC := newMethod(t, m.After(), cA, "helper()", "x y z")

		refs := analyze(t, m)
		assert.Equal(t, []model.RefactoringKind{model.RefactoringMoveMethod, model.RefactoringMoveMethod}, kinds(refs))

		rels := m.RelationshipsOf(helper)
		require.Len(t, rels, 2)
		assert.Same(t, toB, rels[0].After, "ties are broken by key")
		assert.False(t, rels[0].Secondary)
		assert.Same(t, toC, rels[1].After)
		assert.True(t, rels[1].Secondary)
	})

	t.Run("Pull up", func(t *testing.T) {
		m := model.NewModel()
		baseB := newType(t, m.Before(), "pkg", "Base", "")
		subB := newType(t, m.Before(), "pkg", "Sub", "")
		baseB.AddSubtype(subB)
		f := newMethod(t, m.Before(), subB, "f()", "x y z")
		baseA := newType(t, m.After(), "pkg", "Base", "")
		subA := newType(t, m.After(), "pkg", "Sub", "")
		baseA.AddSubtype(subA)
		up := newMethod(t, m.After(), baseA, "f()", "x y z")

		refs := analyze(t, m)
		require.Len(t, refs, 1)
		assert.Equal(t, model.RefactoringPullUpMethod, refs[0].Kind)
		assert.True(t, m.HasRelationship(model.PullUpMethod, f, up))
	})

	t.Run("Push down", func(t *testing.T) {
		m := model.NewModel()
		baseB := newType(t, m.Before(), "pkg", "Base", "")
		subB := newType(t, m.Before(), "pkg", "Sub", "")
		baseB.AddSubtype(subB)
		newMethod(t, m.Before(), baseB, "f()", "x y z")
		baseA := newType(t, m.After(), "pkg", "Base", "")
		subA := newType(t, m.After(), "pkg", "Sub", "")
		baseA.AddSubtype(subA)
		newMethod(t, m.After(), subA, "f()", "x y z")

		assert.Equal(t, []model.RefactoringKind{model.RefactoringPushDownMethod}, kinds(analyze(t, m)))
	})
}

func TestDetector_ExtractInterface(t *testing.T) {
	m := model.NewModel()
	sB := newType(t, m.Before(), "pkg", "Store", "")
	newMethod(t, m.Before(), sB, "Read()", "a b")
	newMethod(t, m.Before(), sB, "Write()", "c d")
	sA := newType(t, m.After(), "pkg", "Store", "")
	newMethod(t, m.After(), sA, "Read()", "a b")
	newMethod(t, m.After(), sA, "Write()", "c d")
	reader := newType(t, m.After(), "pkg", "Reader", "")
	reader.SetInterface(true)
	abstract, err := m.After().CreateMethod("Read()", reader, false)
	require.NoError(t, err)
	abstract.SetAbstract(true)
	reader.AddSubtype(sA)

	refs := analyze(t, m)
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefactoringExtractInterface, refs[0].Kind)
	assert.Same(t, sB, refs[0].Before)
	assert.Same(t, reader, refs[0].After)
	assert.True(t, m.HasRelationship(model.ExtractSupertype, sB, reader))
	assert.True(t, reader.Origins().Contains(sB))
	assert.False(t, m.IsMatched(reader))
}

func TestDetector_ExtractMethod(t *testing.T) {
	t.Run("Reported", func(t *testing.T) {
		m := model.NewModel()
		aB := newType(t, m.Before(), "pkg", "A", "")
		bigB := newMethod(t, m.Before(), aB, "big()", "a b c d e f g h")
		aA := newType(t, m.After(), "pkg", "A", "")
		bigA := newMethod(t, m.After(), aA, "big()", "a b helper ( )")
		helper := newMethod(t, m.After(), aA, "helper()", "c d e f g h")
		bigA.AddReference(helper)

		refs := analyze(t, m)
		require.Len(t, refs, 1)
		assert.Equal(t, model.RefactoringExtractMethod, refs[0].Kind)
		assert.Same(t, bigB, refs[0].Before)
		assert.Same(t, helper, refs[0].After)
		assert.True(t, m.HasRelationship(model.ExtractMethod, bigB, helper))
		assert.Equal(t, 1, helper.Origins().Multiplicity(bigB))
		assert.False(t, m.IsMatched(helper))
	})

	t.Run("Getters are not reported", func(t *testing.T) {
		m := model.NewModel()
		aB := newType(t, m.Before(), "pkg", "A", "")
		bigB := newMethod(t, m.Before(), aB, "big()", "a b return count")
		aA := newType(t, m.After(), "pkg", "A", "")
		bigA := newMethod(t, m.After(), aA, "big()", "a b getCount ( )")
		getter := newMethod(t, m.After(), aA, "getCount()", "return count")
		getter.SetStatements(1)
		getter.SetReturnType("int")
		bigA.AddReference(getter)

		assert.Empty(t, analyze(t, m))
		assert.True(t, m.HasRelationship(model.ExtractMethod, bigB, getter))
	})
}

func TestDetector_InlineMethod(t *testing.T) {
	m := model.NewModel()
	aB := newType(t, m.Before(), "pkg", "A", "")
	bigB := newMethod(t, m.Before(), aB, "big()", "a b helper ( )")
	helper := newMethod(t, m.Before(), aB, "helper()", "c d e f")
	bigB.AddReference(helper)
	aA := newType(t, m.After(), "pkg", "A", "")
	bigA := newMethod(t, m.After(), aA, "big()", "a b c d e f")

	refs := analyze(t, m)
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefactoringInlineMethod, refs[0].Kind)
	assert.Same(t, helper, refs[0].Before)
	assert.Same(t, bigA, refs[0].After)
	assert.Equal(t, 1, helper.InlinedTo().Multiplicity(bigA))
}

func TestDetector_Attributes(t *testing.T) {
	t.Run("Move", func(t *testing.T) {
		m := model.NewModel()
		aB := newType(t, m.Before(), "pkg", "A", "")
		newType(t, m.Before(), "pkg", "B", "")
		count, err := m.Before().CreateAttribute("count", aB)
		require.NoError(t, err)
		count.SetType("int")

		newType(t, m.After(), "pkg", "A", "")
		bA := newType(t, m.After(), "pkg", "B", "")
		moved, err := m.After().CreateAttribute("count", bA)
		require.NoError(t, err)
		moved.SetType("int")

		refs := analyze(t, m)
		assert.Equal(t, []model.RefactoringKind{model.RefactoringMoveAttribute}, kinds(refs))
		assert.True(t, m.HasRelationship(model.MoveField, count, moved))
	})

	t.Run("Type must agree", func(t *testing.T) {
		m := model.NewModel()
		aB := newType(t, m.Before(), "pkg", "A", "")
		newType(t, m.Before(), "pkg", "B", "")
		count, err := m.Before().CreateAttribute("count", aB)
		require.NoError(t, err)
		count.SetType("int")

		newType(t, m.After(), "pkg", "A", "")
		bA := newType(t, m.After(), "pkg", "B", "")
		moved, err := m.After().CreateAttribute("count", bA)
		require.NoError(t, err)
		moved.SetType("int64")

		assert.Empty(t, analyze(t, m))
	})

	t.Run("Pull up", func(t *testing.T) {
		m := model.NewModel()
		baseB := newType(t, m.Before(), "pkg", "Base", "")
		subB := newType(t, m.Before(), "pkg", "Sub", "")
		baseB.AddSubtype(subB)
		_, err := m.Before().CreateAttribute("id", subB)
		require.NoError(t, err)

		baseA := newType(t, m.After(), "pkg", "Base", "")
		subA := newType(t, m.After(), "pkg", "Sub", "")
		baseA.AddSubtype(subA)
		_, err = m.After().CreateAttribute("id", baseA)
		require.NoError(t, err)

		assert.Equal(t, []model.RefactoringKind{model.RefactoringPullUpAttribute}, kinds(analyze(t, m)))
	})
}

func TestDetector_Analyze(t *testing.T) {
	t.Run("Requires initialized model", func(t *testing.T) {
		err := New(DefaultThresholds()).Analyze(context.Background(), model.NewModel())
		assert.ErrorIs(t, err, model.ErrNotInitialized)
	})

	t.Run("Canceled", func(t *testing.T) {
		m := model.NewModel()
		require.NoError(t, m.InitRelationships())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, New(DefaultThresholds()).Analyze(ctx, m), context.Canceled)
	})
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.MoveMethod = 1.5
	assert.ErrorContains(t, bad.Validate(), "move_method")

	bad.RenameType = -0.1
	bad.PushDownAttribute = 2
	for i := 0; i < 10; i++ {
		assert.EqualError(t, bad.Validate(), "threshold rename_type out of range: -0.1")
	}
}
