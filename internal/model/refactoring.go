package model

import "fmt"

// RefactoringKind is the display name of a detected refactoring.
type RefactoringKind string

const (
	RefactoringMoveClass          RefactoringKind = "Move Class"
	RefactoringRenameClass        RefactoringKind = "Rename Class"
	RefactoringMoveAndRenameClass RefactoringKind = "Move And Rename Class"
	RefactoringExtractSuperclass  RefactoringKind = "Extract Superclass"
	RefactoringExtractInterface   RefactoringKind = "Extract Interface"
	RefactoringRenameMethod       RefactoringKind = "Rename Method"
	RefactoringMoveMethod         RefactoringKind = "Move Method"
	RefactoringPullUpMethod       RefactoringKind = "Pull Up Method"
	RefactoringPushDownMethod     RefactoringKind = "Push Down Method"
	RefactoringExtractMethod      RefactoringKind = "Extract Method"
	RefactoringInlineMethod       RefactoringKind = "Inline Method"
	RefactoringMoveAttribute      RefactoringKind = "Move Attribute"
	RefactoringPullUpAttribute    RefactoringKind = "Pull Up Attribute"
	RefactoringPushDownAttribute  RefactoringKind = "Push Down Attribute"
)

// Refactoring is a higher-level finding recorded by the detection layer.
// Before belongs to the before snapshot and After to the after snapshot.
// For Extract Method and Extract Superclass, Before is the origin.
type Refactoring struct {
	Kind   RefactoringKind
	Before Entity
	After  Entity
}

func (r Refactoring) Description() string {
	switch r.Kind {
	case RefactoringMoveClass:
		return fmt.Sprintf("%s %s moved to %s", r.Kind, r.Before.FullName(), r.After.FullName())
	case RefactoringRenameClass:
		return fmt.Sprintf("%s %s renamed to %s", r.Kind, r.Before.FullName(), r.After.FullName())
	case RefactoringMoveAndRenameClass:
		return fmt.Sprintf("%s %s moved and renamed to %s", r.Kind, r.Before.FullName(), r.After.FullName())
	case RefactoringExtractSuperclass, RefactoringExtractInterface:
		return fmt.Sprintf("%s %s from classes [%s]", r.Kind, r.After.FullName(), r.Before.FullName())
	case RefactoringRenameMethod:
		return fmt.Sprintf("%s %s renamed to %s in class %s", r.Kind, r.Before.SimpleName(), r.After.SimpleName(), containerName(r.After))
	case RefactoringExtractMethod:
		return fmt.Sprintf("%s %s extracted from %s in class %s", r.Kind, r.After.SimpleName(), r.Before.SimpleName(), containerName(r.Before))
	case RefactoringInlineMethod:
		return fmt.Sprintf("%s %s inlined to %s in class %s", r.Kind, r.Before.SimpleName(), r.After.SimpleName(), containerName(r.After))
	default:
		return fmt.Sprintf("%s %s from class %s to %s from class %s", r.Kind,
			r.Before.SimpleName(), containerName(r.Before), r.After.SimpleName(), containerName(r.After))
	}
}

func (r Refactoring) String() string {
	return r.Description()
}

func containerName(e Entity) string {
	if c := e.Container(); c != nil {
		return c.FullName()
	}
	return ""
}
