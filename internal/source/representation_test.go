package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens_Similarity(t *testing.T) {
	a := FromTokens([]string{"return", "x", "+", "y"})
	b := FromTokens([]string{"return", "x", "+", "z"})

	t.Run("Identical bodies", func(t *testing.T) {
		assert.InDelta(t, 1.0, a.Similarity(FromTokens([]string{"y", "+", "x", "return"})), 1e-9)
	})

	t.Run("Partial overlap", func(t *testing.T) {
		// 3 common tokens, union of 5
		assert.InDelta(t, 0.6, a.Similarity(b), 1e-9)
	})

	t.Run("Empty bodies", func(t *testing.T) {
		assert.InDelta(t, 1.0, Empty().Similarity(Empty()), 1e-9)
		assert.InDelta(t, 0.0, Empty().Similarity(a), 1e-9)
	})
}

func TestTokens_PartialSimilarity(t *testing.T) {
	small := FromTokens([]string{"a", "b"})
	large := FromTokens([]string{"a", "b", "c", "d"})

	assert.InDelta(t, 1.0, small.PartialSimilarity(large), 1e-9)
	assert.InDelta(t, 0.5, large.PartialSimilarity(small), 1e-9)
	assert.InDelta(t, 0.0, Empty().PartialSimilarity(large), 1e-9)
}

func TestTokens_MinusAndCombine(t *testing.T) {
	before := FromTokens([]string{"a", "a", "b", "c"})
	after := FromTokens([]string{"a", "c"})

	removed := before.Minus(after)
	assert.Equal(t, 2, removed.Len())
	assert.InDelta(t, 1.0, removed.Similarity(FromTokens([]string{"a", "b"})), 1e-9)

	combined := after.Combine(removed)
	assert.Equal(t, 4, combined.Len())
	assert.InDelta(t, 1.0, combined.Similarity(before), 1e-9)
}

func TestFromLines(t *testing.T) {
	text := "type Foo struct {\n\tname string\n\n\tage  int\n}\n"
	lines := FromLines(text)
	assert.Equal(t, 4, lines.Len())

	reindented := FromLines("type Foo struct {\n    name string\n    age  int\n}")
	assert.InDelta(t, 1.0, lines.Similarity(reindented), 1e-9)
	assert.Equal(t, 0, FromLines("\n  \n").Len())
}
