package authz

import (
	"strings"

	"github.com/google/uuid"
)

// Actor is the authenticated principal a request acts as. ProgramIDs are
// the programs the actor belongs to, read fresh per request from
// membership rows.
type Actor struct {
	ID         uuid.UUID
	Roles      []string
	ProgramIDs []uuid.UUID
}

// ScopeKind identifies how far an actor's reach extends.
type ScopeKind string

const (
	// ScopeAll covers every resource.
	ScopeAll ScopeKind = "all"
	// ScopeOwnedPrograms covers resources inside the actor's programs.
	ScopeOwnedPrograms ScopeKind = "owned_programs"
	// ScopeOwnRecords covers only rows the actor owns.
	ScopeOwnRecords ScopeKind = "own_records"
)

// ResourceClass identifies which resource family a scope is resolved for.
type ResourceClass string

const (
	ResourcePrograms  ResourceClass = "program"
	ResourceTemplates ResourceClass = "template"
	ResourceTasks     ResourceClass = "task"
	ResourceUsers     ResourceClass = "user"
)

// ResourceClassForAction derives the resource class from a permission key
// ("task.update" -> tasks).
func ResourceClassForAction(action string) ResourceClass {
	prefix, _, _ := strings.Cut(action, ".")
	return ResourceClass(prefix)
}

// Scope is the resolved reach of an actor over one resource class.
type Scope struct {
	Kind     ScopeKind
	actorID  uuid.UUID
	programs map[uuid.UUID]struct{}
}

// ResolveScope computes the actor's reach for a resource class. Admin and
// auditor resolve to All (the auditor's permission set is read-only, which
// keeps All safe). Manager and viewer resolve to their membership programs.
// Everyone else, trainees included, is limited to rows they own. Templates
// are a global catalog, so every actor resolves to All for them and access
// is controlled purely by the permission catalog.
func ResolveScope(actor Actor, class ResourceClass) Scope {
	if class == ResourceTemplates {
		return Scope{Kind: ScopeAll, actorID: actor.ID}
	}

	kind := ScopeOwnRecords
	for _, role := range actor.Roles {
		switch role {
		case "admin", "auditor":
			return Scope{Kind: ScopeAll, actorID: actor.ID}
		case "manager", "viewer":
			kind = ScopeOwnedPrograms
		}
	}

	if kind == ScopeOwnedPrograms {
		programs := make(map[uuid.UUID]struct{}, len(actor.ProgramIDs))
		for _, id := range actor.ProgramIDs {
			programs[id] = struct{}{}
		}
		return Scope{Kind: ScopeOwnedPrograms, actorID: actor.ID, programs: programs}
	}

	return Scope{Kind: ScopeOwnRecords, actorID: actor.ID}
}

// AllowsProgram reports whether a resource belonging to the given program
// is within scope.
func (s Scope) AllowsProgram(programID uuid.UUID) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeOwnedPrograms:
		_, ok := s.programs[programID]
		return ok
	default:
		return false
	}
}

// AllowsOwner reports whether a resource owned by the given user is within
// scope. Ownership always satisfies OwnRecords; broader scopes are checked
// by program instead.
func (s Scope) AllowsOwner(ownerID uuid.UUID) bool {
	if s.Kind == ScopeAll {
		return true
	}
	return ownerID == s.actorID
}

// ProgramIDs returns the program set for OwnedPrograms scopes, for callers
// that intersect list queries with the scope. Nil for other kinds.
func (s Scope) ProgramIDs() []uuid.UUID {
	if s.Kind != ScopeOwnedPrograms {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(s.programs))
	for id := range s.programs {
		ids = append(ids, id)
	}
	return ids
}
