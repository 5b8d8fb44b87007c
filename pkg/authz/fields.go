package authz

import "sort"

// FieldSet is the set of record fields a PATCH may touch. The zero value
// allows nothing.
type FieldSet struct {
	all    bool
	fields map[string]struct{}
}

// AllFields returns a set that admits every field except those the
// lifecycle rules forbid outright (checked separately).
func AllFields() FieldSet {
	return FieldSet{all: true}
}

// Fields returns a set containing exactly the named fields.
func Fields(names ...string) FieldSet {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return FieldSet{fields: m}
}

// Contains reports whether the set admits the named field.
func (fs FieldSet) Contains(name string) bool {
	if fs.all {
		return true
	}
	_, ok := fs.fields[name]
	return ok
}

// IsEmpty reports whether the set admits nothing.
func (fs FieldSet) IsEmpty() bool {
	return !fs.all && len(fs.fields) == 0
}

// Union returns the combination of two sets.
func (fs FieldSet) Union(other FieldSet) FieldSet {
	if fs.all || other.all {
		return FieldSet{all: true}
	}
	m := make(map[string]struct{}, len(fs.fields)+len(other.fields))
	for n := range fs.fields {
		m[n] = struct{}{}
	}
	for n := range other.fields {
		m[n] = struct{}{}
	}
	return FieldSet{fields: m}
}

// Names returns the admitted field names sorted, or nil for an all-fields
// set. Used to surface allowedFields in decisions.
func (fs FieldSet) Names() []string {
	if fs.all {
		return nil
	}
	names := make([]string, 0, len(fs.fields))
	for n := range fs.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// permissionFields maps a write permission to the record fields it unlocks.
// Holding a permission is not the same as holding every field: task.assign
// writes scheduled_for and nothing else.
var permissionFields = map[string]FieldSet{
	PermTaskUpdate:     Fields("label", "scheduled_for", "done", "program_id", "user_id", "deleted"),
	PermTaskAssign:     Fields("scheduled_for"),
	PermProgramUpdate:  Fields("title"),
	PermTemplateUpdate: Fields("label", "week_number", "due_offset_days", "required", "visibility", "sort_order", "notes"),
}

// OwnerSelfServiceFields is what a task owner may change on their own row
// without holding any task permission. Independent of the catalog.
var OwnerSelfServiceFields = Fields("done")

// AllowedFields returns the fields unlocked by the granted permission for
// actors holding the given roles. The role list is part of the signature so
// the table can diverge per role later; today the permission alone decides.
func AllowedFields(roles []string, grantedPermission string) FieldSet {
	if !HasPermission(roles, grantedPermission) {
		return FieldSet{}
	}
	return permissionFields[grantedPermission]
}

// lifecycleLockedFields are never patchable through a generic PATCH,
// regardless of permissions. Status only moves via the dedicated
// transition actions.
var lifecycleLockedFields = map[string]struct{}{
	"status":     {},
	"deleted_at": {},
}

// IsLifecycleLocked reports whether the field is reserved for lifecycle
// transition actions.
func IsLifecycleLocked(name string) bool {
	_, ok := lifecycleLockedFields[name]
	return ok
}
