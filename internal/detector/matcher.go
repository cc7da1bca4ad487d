package detector

import (
	"sort"

	"refdiff/internal/model"
	"refdiff/internal/source"
)

// sourced entities expose the body the matcher scores them by.
type sourced interface {
	model.Entity
	SourceCode() source.Representation
}

// criterion is one way of pairing an unmatched before entity with an
// unmatched after entity.
type criterion[T sourced] struct {
	relationship model.RelationshipType
	threshold    float64
	canMatch     func(m *model.Model, before, after T) bool
	onMatch      func(m *model.Model, before, after T)
}

type matcher[T sourced] struct {
	criteria []criterion[T]
}

type candidate[T sourced] struct {
	before, after T
	similarity    float64
}

// match applies each criterion in turn to the entities still unmatched at
// that point. Candidates are tried from the most to the least similar, and
// the model decides which of them are admitted.
func (mt matcher[T]) match(m *model.Model, unmatchedBefore, unmatchedAfter func() []T) {
	for _, c := range mt.criteria {
		befores, afters := unmatchedBefore(), unmatchedAfter()

		var candidates []candidate[T]
		for _, before := range befores {
			for _, after := range afters {
				if !c.canMatch(m, before, after) {
					continue
				}
				sim := before.SourceCode().Similarity(after.SourceCode())
				if sim >= c.threshold {
					candidates = append(candidates, candidate[T]{before: before, after: after, similarity: sim})
				}
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.similarity != b.similarity {
				return a.similarity > b.similarity
			}
			if a.before.Key() != b.before.Key() {
				return a.before.Key() < b.before.Key()
			}
			return a.after.Key() < b.after.Key()
		})

		for _, cand := range candidates {
			if m.AddRelationship(c.relationship, cand.before, cand.after, 1) && c.onMatch != nil {
				c.onMatch(m, cand.before, cand.after)
			}
		}
	}
}

// record returns an onMatch callback reporting kind.
func record[T sourced](kind model.RefactoringKind) func(*model.Model, T, T) {
	return func(m *model.Model, before, after T) {
		m.AddRefactoring(model.Refactoring{Kind: kind, Before: before, After: after})
	}
}
