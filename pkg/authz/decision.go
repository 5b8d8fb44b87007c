package authz

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Input carries everything a decision depends on. Decide is a pure function
// of this value; membership and ownership facts are loaded by the caller
// before the decision is made.
type Input struct {
	ActorID         uuid.UUID
	ActorRoles      []string
	ActorProgramIDs []uuid.UUID

	// Action is the permission key the request needs, e.g. task.update.
	Action string

	// ResourceOwnerID is the owning user of the target row, when the
	// request addresses a specific row with an owner (tasks).
	ResourceOwnerID *uuid.UUID

	// ResourceProgramID is the program the target row belongs to, when the
	// request addresses a specific row or creates one inside a program.
	ResourceProgramID *uuid.UUID

	// TargetProgramID is the destination program when a patch reassigns
	// program_id. Checked against scope even for otherwise-permitted actors.
	TargetProgramID *uuid.UUID

	// RequestedFields are the record fields a mutation wants to change.
	RequestedFields []string
}

// Decision is the outcome of one authorization check. A denied decision has
// zero side effects by construction; callers must not mutate anything
// before consulting it.
type Decision struct {
	Allowed       bool     `json:"allowed"`
	HTTPStatus    int      `json:"http_status"`
	AllowedFields []string `json:"allowed_fields,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

func deny(status int, reason string) Decision {
	return Decision{Allowed: false, HTTPStatus: status, Reason: reason}
}

// Decide runs the full authorization pipeline: permission, scope, field
// gate, lifecycle constraints. Scope violations are 403, not 404, so a
// denied caller cannot distinguish "exists but out of reach" from
// "forbidden" while a genuinely absent resource still 404s at the storage
// layer.
func Decide(in Input) Decision {
	if !IsKnownPermission(in.Action) {
		return deny(http.StatusBadRequest, fmt.Sprintf("unknown action %q", in.Action))
	}

	actor := Actor{ID: in.ActorID, Roles: in.ActorRoles, ProgramIDs: in.ActorProgramIDs}
	class := ResourceClassForAction(in.Action)

	allowed, ownershipGrant := AllFields(), false
	switch {
	case HasPermission(in.ActorRoles, in.Action):
		if fs, ok := permissionFields[in.Action]; ok {
			allowed = fs
		}
	case in.Action == PermTaskUpdate && HasPermission(in.ActorRoles, PermTaskAssign):
		// Holding task.assign alone unlocks scheduling writes only.
		allowed = permissionFields[PermTaskAssign]
	case in.Action == PermTaskUpdate && in.ResourceOwnerID != nil && *in.ResourceOwnerID == in.ActorID:
		// Ownership self-service: a task owner may complete their own task
		// without any task permission. Independent of the catalog.
		allowed = OwnerSelfServiceFields
		ownershipGrant = true
	default:
		return deny(http.StatusForbidden, fmt.Sprintf("missing permission %s", in.Action))
	}

	if !ownershipGrant {
		scope := ResolveScope(actor, class)
		if !targetInScope(scope, in) {
			return deny(http.StatusForbidden, "target resource is outside the actor's scope")
		}
		if in.TargetProgramID != nil && !scope.AllowsProgram(*in.TargetProgramID) {
			return deny(http.StatusForbidden, "destination program is outside the actor's scope")
		}
	} else if in.TargetProgramID != nil {
		// The self-service grant never reaches across programs.
		return deny(http.StatusForbidden, "destination program is outside the actor's scope")
	}

	for _, f := range in.RequestedFields {
		if IsLifecycleLocked(f) {
			return deny(http.StatusForbidden, fmt.Sprintf("field %q only changes via lifecycle actions", f))
		}
		if !allowed.Contains(f) {
			// Wholesale rejection: no partial apply of the permitted subset.
			return deny(http.StatusForbidden, fmt.Sprintf("field %q is not writable with the granted permission", f))
		}
		if f == "program_id" && in.TargetProgramID == nil {
			return deny(http.StatusBadRequest, "program_id patch requires a destination program")
		}
	}

	return Decision{Allowed: true, HTTPStatus: http.StatusOK, AllowedFields: allowed.Names()}
}

// targetInScope checks the addressed resource against the resolved scope.
// Requests without a concrete target (collection reads) pass; the caller
// intersects the query with the scope instead, and may legitimately get an
// empty page.
func targetInScope(scope Scope, in Input) bool {
	if in.ResourceProgramID == nil && in.ResourceOwnerID == nil {
		return true
	}
	if in.ResourceProgramID != nil && scope.AllowsProgram(*in.ResourceProgramID) {
		return true
	}
	if in.ResourceOwnerID != nil && scope.Kind == ScopeOwnRecords && scope.AllowsOwner(*in.ResourceOwnerID) {
		return true
	}
	return false
}
