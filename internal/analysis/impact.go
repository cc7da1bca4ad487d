package analysis

import (
	"refdiff/internal/model"
)

// ImpactReport summarizes the entities touched by a set of refactorings.
type ImpactReport struct {
	DirectlyAffected   []model.Entity
	IndirectlyAffected []model.Entity
}

// Analyzer computes the impact of refactorings on the after snapshot.
type Analyzer struct {
	m *model.Model
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(m *model.Model) *Analyzer {
	return &Analyzer{m: m}
}

// AnalyzeImpact reports the after side of every refactoring as directly
// affected, and the code referring to it as indirectly affected.
func (a *Analyzer) AnalyzeImpact(refs []model.Refactoring) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []model.Entity{},
		IndirectlyAffected: []model.Entity{},
	}

	seenDirect := make(map[model.Entity]bool)
	seenIndirect := make(map[model.Entity]bool)

	// 1. Find Direct Impacts
	for _, r := range refs {
		if r.After == nil || !a.m.After().Contains(r.After) || seenDirect[r.After] {
			continue
		}
		report.DirectlyAffected = append(report.DirectlyAffected, r.After)
		seenDirect[r.After] = true
	}

	// 2. Find Indirect Impacts (Callers and other references)
	for _, e := range report.DirectlyAffected {
		for _, dep := range dependents(e) {
			if !seenDirect[dep] && !seenIndirect[dep] {
				report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
				seenIndirect[dep] = true
			}
		}
	}

	return report
}

func dependents(e model.Entity) []model.Entity {
	deps := e.ReferencedBy().Elements()
	if m, ok := e.(*model.Method); ok {
		for _, caller := range m.Callers().Elements() {
			deps = append(deps, caller)
		}
	}
	return deps
}
