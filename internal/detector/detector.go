// Package detector proposes relationships between the two snapshots of a
// model and records the refactorings they imply.
package detector

import (
	"context"
	"fmt"

	"refdiff/internal/model"
	"refdiff/internal/source"
)

// Thresholds are the minimum similarities each criterion accepts.
type Thresholds struct {
	MoveType          float64 `yaml:"move_type"`
	RenameType        float64 `yaml:"rename_type"`
	MoveAndRenameType float64 `yaml:"move_and_rename_type"`
	ExtractSupertype  float64 `yaml:"extract_supertype"`
	RenameMethod      float64 `yaml:"rename_method"`
	MoveMethod        float64 `yaml:"move_method"`
	PullUpMethod      float64 `yaml:"pull_up_method"`
	PushDownMethod    float64 `yaml:"push_down_method"`
	ExtractMethod     float64 `yaml:"extract_method"`
	InlineMethod      float64 `yaml:"inline_method"`
	MoveAttribute     float64 `yaml:"move_attribute"`
	PullUpAttribute   float64 `yaml:"pull_up_attribute"`
	PushDownAttribute float64 `yaml:"push_down_attribute"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MoveType:          0.4,
		RenameType:        0.4,
		MoveAndRenameType: 0.5,
		ExtractSupertype:  0.5,
		RenameMethod:      0.5,
		MoveMethod:        0.5,
		PullUpMethod:      0.5,
		PushDownMethod:    0.5,
		ExtractMethod:     0.5,
		InlineMethod:      0.5,
		MoveAttribute:     0.2,
		PullUpAttribute:   0.2,
		PushDownAttribute: 0.2,
	}
}

// Validate rejects thresholds outside [0, 1], naming the first offender in
// declaration order.
func (t Thresholds) Validate() error {
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"move_type", t.MoveType},
		{"rename_type", t.RenameType},
		{"move_and_rename_type", t.MoveAndRenameType},
		{"extract_supertype", t.ExtractSupertype},
		{"rename_method", t.RenameMethod},
		{"move_method", t.MoveMethod},
		{"pull_up_method", t.PullUpMethod},
		{"push_down_method", t.PushDownMethod},
		{"extract_method", t.ExtractMethod},
		{"inline_method", t.InlineMethod},
		{"move_attribute", t.MoveAttribute},
		{"pull_up_attribute", t.PullUpAttribute},
		{"push_down_attribute", t.PushDownAttribute},
	} {
		if th.value < 0 || th.value > 1 {
			return fmt.Errorf("threshold %s out of range: %v", th.name, th.value)
		}
	}
	return nil
}

// Detector runs the detection phases over an initialized model.
type Detector struct {
	cfg Thresholds
}

func New(cfg Thresholds) *Detector {
	return &Detector{cfg: cfg}
}

// Analyze runs every phase in order: matching types, extracted supertypes,
// matching methods, extracted methods, inlined methods, matching attributes.
func (d *Detector) Analyze(ctx context.Context, m *model.Model) error {
	if !m.Initialized() {
		return model.ErrNotInitialized
	}
	phases := []func(*model.Model){
		d.matchTypes,
		d.extractSupertypes,
		d.matchMethods,
		d.extractMethods,
		d.inlineMethods,
		d.matchAttributes,
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		phase(m)
	}
	return nil
}

func (d *Detector) matchTypes(m *model.Model) {
	matcher[*model.Type]{
		criteria: []criterion[*model.Type]{
			{
				relationship: model.MoveType,
				threshold:    d.cfg.MoveType,
				canMatch: func(m *model.Model, before, after *model.Type) bool {
					return before.SimpleName() == after.SimpleName()
				},
				onMatch: record[*model.Type](model.RefactoringMoveClass),
			},
			{
				relationship: model.RenameType,
				threshold:    d.cfg.RenameType,
				canMatch: func(m *model.Model, before, after *model.Type) bool {
					return m.EntitiesMatch(before.Container(), after.Container())
				},
				onMatch: record[*model.Type](model.RefactoringRenameClass),
			},
			{
				relationship: model.MoveAndRenameType,
				threshold:    d.cfg.MoveAndRenameType,
				canMatch: func(m *model.Model, before, after *model.Type) bool {
					return before.SimpleName() != after.SimpleName() &&
						!m.EntitiesMatch(before.Container(), after.Container())
				},
				onMatch: record[*model.Type](model.RefactoringMoveAndRenameClass),
			},
		},
	}.match(m, m.Before().UnmatchedTypes, m.After().UnmatchedTypes)
}

// extractSupertypes looks for new types whose members were mostly present in
// one of their matched subtypes.
func (d *Detector) extractSupertypes(m *model.Model) {
	for _, typeAfter := range m.After().UnmatchedTypes() {
		supertypeMembers := members(m.After(), typeAfter)
		for _, subtype := range model.Select(typeAfter.Subtypes(), model.IsMatched[*model.Type](m)) {
			subtypeBefore, ok := beforeOf[*model.Type](m, subtype)
			if !ok {
				continue
			}
			sim := supertypeMembers.PartialSimilarity(members(m.Before(), subtypeBefore))
			if sim < d.cfg.ExtractSupertype {
				continue
			}
			typeAfter.AddOrigin(subtypeBefore, 1)
			m.AddRelationship(model.ExtractSupertype, subtypeBefore, typeAfter, 1)
			kind := model.RefactoringExtractSuperclass
			if typeAfter.IsInterface() {
				kind = model.RefactoringExtractInterface
			}
			m.AddRefactoring(model.Refactoring{Kind: kind, Before: subtypeBefore, After: typeAfter})
		}
	}
}

func (d *Detector) matchMethods(m *model.Model) {
	sameIdentifier := func(before, after *model.Method) bool {
		return before.Identifier() == after.Identifier() && concrete(before, after)
	}
	movable := func(before, after *model.Method) bool {
		return sameIdentifier(before, after) && !before.IsConstructor() && !after.IsConstructor()
	}

	matcher[*model.Method]{
		criteria: []criterion[*model.Method]{
			{
				relationship: model.ChangeMethodSignature,
				threshold:    d.cfg.RenameMethod,
				canMatch: func(m *model.Model, before, after *model.Method) bool {
					return sameIdentifier(before, after) && m.EntitiesMatch(before.Container(), after.Container())
				},
			},
			{
				relationship: model.RenameMethod,
				threshold:    d.cfg.RenameMethod,
				canMatch: func(m *model.Model, before, after *model.Method) bool {
					return before.Identifier() != after.Identifier() && concrete(before, after) &&
						m.EntitiesMatch(before.Container(), after.Container())
				},
				onMatch: record[*model.Method](model.RefactoringRenameMethod),
			},
			{
				relationship: model.PullUpMethod,
				threshold:    d.cfg.PullUpMethod,
				canMatch: func(m *model.Model, before, after *model.Method) bool {
					return movable(before, after) && pulledUp(m, before, after)
				},
				onMatch: func(m *model.Model, before, after *model.Method) {
					if !m.HasRelationship(model.ExtractSupertype, before.Container(), after.Container()) {
						m.AddRefactoring(model.Refactoring{Kind: model.RefactoringPullUpMethod, Before: before, After: after})
					}
				},
			},
			{
				relationship: model.PushDownMethod,
				threshold:    d.cfg.PushDownMethod,
				canMatch: func(m *model.Model, before, after *model.Method) bool {
					return movable(before, after) && pushedDown(m, before, after)
				},
				onMatch: record[*model.Method](model.RefactoringPushDownMethod),
			},
			{
				relationship: model.MoveMethod,
				threshold:    d.cfg.MoveMethod,
				canMatch: func(m *model.Model, before, after *model.Method) bool {
					return movable(before, after) && !m.EntitiesMatch(before.Container(), after.Container())
				},
				onMatch: record[*model.Method](model.RefactoringMoveMethod),
			},
		},
	}.match(m, m.Before().UnmatchedMethods, m.After().UnmatchedMethods)
}

func (d *Detector) matchAttributes(m *model.Model) {
	sameField := func(before, after *model.Attribute) bool {
		return before.SimpleName() == after.SimpleName() && before.Type() == after.Type()
	}

	matcher[*model.Attribute]{
		criteria: []criterion[*model.Attribute]{
			{
				relationship: model.PullUpField,
				threshold:    d.cfg.PullUpAttribute,
				canMatch: func(m *model.Model, before, after *model.Attribute) bool {
					return sameField(before, after) && pulledUp(m, before, after)
				},
				onMatch: func(m *model.Model, before, after *model.Attribute) {
					if !m.HasRelationship(model.ExtractSupertype, before.Container(), after.Container()) {
						m.AddRefactoring(model.Refactoring{Kind: model.RefactoringPullUpAttribute, Before: before, After: after})
					}
				},
			},
			{
				relationship: model.PushDownField,
				threshold:    d.cfg.PushDownAttribute,
				canMatch: func(m *model.Model, before, after *model.Attribute) bool {
					return sameField(before, after) && pushedDown(m, before, after)
				},
				onMatch: record[*model.Attribute](model.RefactoringPushDownAttribute),
			},
			{
				relationship: model.MoveField,
				threshold:    d.cfg.MoveAttribute,
				canMatch: func(m *model.Model, before, after *model.Attribute) bool {
					return sameField(before, after)
				},
				onMatch: record[*model.Attribute](model.RefactoringMoveAttribute),
			},
		},
	}.match(m, m.Before().UnmatchedAttributes, m.After().UnmatchedAttributes)
}

// extractMethods finds new methods whose body was removed from a matched
// caller.
func (d *Detector) extractMethods(m *model.Model) {
	for _, method := range m.After().UnmatchedMethods() {
		callers := method.Callers().SuchThat(model.IsNotEqual(method).And(model.IsMatched[*model.Method](m)))
		for _, caller := range callers {
			origin, ok := beforeOf[*model.Method](m, caller)
			if !ok {
				continue
			}
			removedCode := origin.SourceCode().Minus(caller.SourceCode())
			if method.SourceCode().PartialSimilarity(removedCode) < d.cfg.ExtractMethod {
				continue
			}
			method.AddOrigin(origin, 1)
			m.AddRelationship(model.ExtractMethod, origin, method, 1)
			if !method.IsSetter() && !method.IsGetter() {
				m.AddRefactoring(model.Refactoring{Kind: model.RefactoringExtractMethod, Before: origin, After: method})
			}
		}
	}
}

// inlineMethods finds removed methods whose body was added to a matched
// caller.
func (d *Detector) inlineMethods(m *model.Model) {
	for _, method := range m.Before().UnmatchedMethods() {
		callers := method.Callers().SuchThat(model.IsNotEqual(method).And(model.IsMatched[*model.Method](m)))
		for _, caller := range callers {
			dest, ok := afterOf[*model.Method](m, caller)
			if !ok {
				continue
			}
			addedCode := dest.SourceCode().Minus(caller.SourceCode())
			if method.SourceCode().PartialSimilarity(addedCode) < d.cfg.InlineMethod {
				continue
			}
			method.AddInlinedTo(dest, 1)
			m.AddRelationship(model.InlineMethod, method, dest, 1)
			m.AddRefactoring(model.Refactoring{Kind: model.RefactoringInlineMethod, Before: method, After: dest})
		}
	}
}

func concrete(before, after *model.Method) bool {
	return !before.IsAbstract() && !after.IsAbstract()
}

// pulledUp reports whether the container of after is a supertype of the
// counterpart of before's container.
func pulledUp(m *model.Model, before, after model.Entity) bool {
	container, ok := afterOf[*model.Type](m, before.Container())
	return ok && container.IsSubtypeOf(after.Container())
}

// pushedDown reports whether the container of after is a subtype of the
// counterpart of before's container.
func pushedDown(m *model.Model, before, after model.Entity) bool {
	container, ok := afterOf[*model.Type](m, before.Container())
	if !ok {
		return false
	}
	sub, isType := after.Container().(*model.Type)
	return isType && sub.IsSubtypeOf(container)
}

// members represents a type by the simple names of its members.
func members(s *model.Snapshot, t *model.Type) source.Representation {
	var names []string
	for _, child := range s.Children(t) {
		names = append(names, child.SimpleName())
	}
	return source.FromTokens(names)
}

func afterOf[T model.Entity](m *model.Model, e model.Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	after, ok := m.AfterOf(e)
	if !ok {
		return zero, false
	}
	t, ok := after.(T)
	return t, ok
}

func beforeOf[T model.Entity](m *model.Model, e model.Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	before, ok := m.BeforeOf(e)
	if !ok {
		return zero, false
	}
	t, ok := before.(T)
	return t, ok
}
