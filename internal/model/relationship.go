package model

// RelationshipType is the closed catalog of before/after transformations.
type RelationshipType int

const (
	Same RelationshipType = iota
	ConvertToInterface
	ConvertToClass
	MoveType
	RenameType
	MoveAndRenameType
	MoveMethod
	MoveField
	RenameMethod
	ChangeMethodSignature
	PullUpMethod
	PullUpField
	PushDownMethod
	PushDownField
	ExtractMethod
	ExtractSupertype
	InlineMethod
)

type relationshipTraits struct {
	name        string
	matching    bool
	multisource bool
	multitarget bool
}

var relationshipCatalog = [...]relationshipTraits{
	Same:                  {"Same", true, false, false},
	ConvertToInterface:    {"ConvertToInterface", true, false, false},
	ConvertToClass:        {"ConvertToClass", true, false, false},
	MoveType:              {"MoveType", true, false, false},
	RenameType:            {"RenameType", true, false, false},
	MoveAndRenameType:     {"MoveAndRenameType", true, false, false},
	MoveMethod:            {"MoveMethod", true, true, true},
	MoveField:             {"MoveField", true, false, false},
	RenameMethod:          {"RenameMethod", true, false, false},
	ChangeMethodSignature: {"ChangeMethodSignature", true, false, false},
	PullUpMethod:          {"PullUpMethod", true, true, false},
	PullUpField:           {"PullUpField", true, true, false},
	PushDownMethod:        {"PushDownMethod", true, false, true},
	PushDownField:         {"PushDownField", true, false, true},
	ExtractMethod:         {"ExtractMethod", false, true, true},
	ExtractSupertype:      {"ExtractSupertype", false, true, true},
	InlineMethod:          {"InlineMethod", false, true, true},
}

// RelationshipTypes lists the catalog in declaration order.
func RelationshipTypes() []RelationshipType {
	out := make([]RelationshipType, len(relationshipCatalog))
	for i := range relationshipCatalog {
		out[i] = RelationshipType(i)
	}
	return out
}

func (t RelationshipType) traits() relationshipTraits {
	if t < 0 || int(t) >= len(relationshipCatalog) {
		return relationshipTraits{name: "Unknown"}
	}
	return relationshipCatalog[t]
}

func (t RelationshipType) String() string { return t.traits().name }

// IsMatching reports whether the relationship establishes before/after identity.
func (t RelationshipType) IsMatching() bool { return t.traits().matching }

// IsMultisource allows several before entities to share one after match.
func (t RelationshipType) IsMultisource() bool { return t.traits().multisource }

// IsMultitarget allows one before entity to match several after entities.
func (t RelationshipType) IsMultitarget() bool { return t.traits().multitarget }

// Relationship is an immutable edge between a before and an after entity.
// Secondary edges were admitted only through the fan-in/fan-out rule next
// to an existing primary edge of the same type.
type Relationship struct {
	Type         RelationshipType
	Secondary    bool
	Before       Entity
	After        Entity
	Multiplicity int
}

func (r Relationship) IsMatching() bool {
	return r.Type.IsMatching()
}
