package authz

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestDecide_UnknownAction(t *testing.T) {
	d := Decide(Input{ActorRoles: []string{"admin"}, Action: "task.frobnicate"})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusBadRequest, d.HTTPStatus)
}

func TestDecide_MissingPermission(t *testing.T) {
	d := Decide(Input{
		ActorID:    uuid.New(),
		ActorRoles: []string{"viewer"},
		Action:     PermTaskCreate,
	})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
}

func TestDecide_ManagerCreateTask(t *testing.T) {
	program := uuid.New()
	in := Input{
		ActorID:           uuid.New(),
		ActorRoles:        []string{"viewer"},
		ActorProgramIDs:   []uuid.UUID{program},
		Action:            PermTaskCreate,
		ResourceProgramID: uuidPtr(program),
	}

	// Without task.create the call is forbidden even for a managed program.
	d := Decide(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)

	// Granting task.create (via the manager role) flips the same call.
	in.ActorRoles = []string{"manager"}
	d = Decide(in)
	assert.True(t, d.Allowed)
	assert.Equal(t, http.StatusOK, d.HTTPStatus)
}

func TestDecide_ManagerOutOfScopeProgram(t *testing.T) {
	d := Decide(Input{
		ActorID:           uuid.New(),
		ActorRoles:        []string{"manager"},
		ActorProgramIDs:   []uuid.UUID{uuid.New()},
		Action:            PermTaskUpdate,
		ResourceProgramID: uuidPtr(uuid.New()),
		RequestedFields:   []string{"label"},
	})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
}

// withTestRole registers a role in the catalog for the duration of one test.
// Lets the fallback paths be exercised with permission mixes no shipped role
// carries (e.g. task.assign without task.update).
func withTestRole(t *testing.T, role string, perms ...string) {
	t.Helper()
	rolePermissions[role] = perms
	t.Cleanup(func() { delete(rolePermissions, role) })
}

func TestDecide_AssignOnlyActor(t *testing.T) {
	withTestRole(t, "scheduler", PermTaskRead, PermTaskAssign)

	program := uuid.New()
	in := Input{
		ActorID:           uuid.New(),
		ActorRoles:        []string{"scheduler", "viewer"},
		ActorProgramIDs:   []uuid.UUID{program},
		Action:            PermTaskUpdate,
		ResourceProgramID: uuidPtr(program),
		RequestedFields:   []string{"scheduled_for"},
	}

	// task.assign alone admits scheduled_for on a task in a managed program.
	d := Decide(in)
	assert.True(t, d.Allowed)
	assert.Equal(t, http.StatusOK, d.HTTPStatus)
	assert.Equal(t, []string{"scheduled_for"}, d.AllowedFields)

	// The same actor patching label on the same task is rejected.
	in.RequestedFields = []string{"label"}
	d = Decide(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
}

func TestDecide_OwnershipSelfService(t *testing.T) {
	actorID := uuid.New()
	program := uuid.New()

	// A trainee with no task.update can still complete their own task.
	d := Decide(Input{
		ActorID:           actorID,
		ActorRoles:        []string{"trainee"},
		Action:            PermTaskUpdate,
		ResourceOwnerID:   uuidPtr(actorID),
		ResourceProgramID: uuidPtr(program),
		RequestedFields:   []string{"done"},
	})
	assert.True(t, d.Allowed)
	assert.Equal(t, []string{"done"}, d.AllowedFields)

	// But not someone else's task.
	d = Decide(Input{
		ActorID:           actorID,
		ActorRoles:        []string{"trainee"},
		Action:            PermTaskUpdate,
		ResourceOwnerID:   uuidPtr(uuid.New()),
		ResourceProgramID: uuidPtr(program),
		RequestedFields:   []string{"done"},
	})
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)

	// And no field beyond done on their own task.
	d = Decide(Input{
		ActorID:           actorID,
		ActorRoles:        []string{"trainee"},
		Action:            PermTaskUpdate,
		ResourceOwnerID:   uuidPtr(actorID),
		ResourceProgramID: uuidPtr(program),
		RequestedFields:   []string{"label"},
	})
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
}

func TestDecide_WholesaleFieldRejection(t *testing.T) {
	// A patch mixing one allowed and one disallowed field fails entirely.
	actorID := uuid.New()
	d := Decide(Input{
		ActorID:         actorID,
		ActorRoles:      []string{"trainee"},
		Action:          PermTaskUpdate,
		ResourceOwnerID: uuidPtr(actorID),
		RequestedFields: []string{"done", "label"},
	})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
}

func TestDecide_StatusNeverPatchable(t *testing.T) {
	d := Decide(Input{
		ActorID:         uuid.New(),
		ActorRoles:      []string{"admin"},
		Action:          PermProgramUpdate,
		RequestedFields: []string{"status"},
	})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)
	assert.Contains(t, d.Reason, "lifecycle")
}

func TestDecide_ProgramReassignmentCrossScope(t *testing.T) {
	managed := uuid.New()
	foreign := uuid.New()
	in := Input{
		ActorID:           uuid.New(),
		ActorRoles:        []string{"manager"},
		ActorProgramIDs:   []uuid.UUID{managed},
		Action:            PermTaskUpdate,
		ResourceProgramID: uuidPtr(managed),
		TargetProgramID:   uuidPtr(foreign),
		RequestedFields:   []string{"program_id"},
	}

	// Moving a task into a program outside the actor's scope is denied even
	// though task.update would otherwise admit program_id.
	d := Decide(in)
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.HTTPStatus)

	in.TargetProgramID = uuidPtr(managed)
	in.ResourceProgramID = uuidPtr(managed)
	d = Decide(in)
	assert.True(t, d.Allowed)
}

func TestDecide_ProgramIDPatchWithoutDestination(t *testing.T) {
	d := Decide(Input{
		ActorID:         uuid.New(),
		ActorRoles:      []string{"admin"},
		Action:          PermTaskUpdate,
		RequestedFields: []string{"program_id"},
	})

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusBadRequest, d.HTTPStatus)
}

func TestDecide_CollectionReadPasses(t *testing.T) {
	// No concrete target: the caller intersects the list query with the
	// scope, and an empty result is legitimate.
	d := Decide(Input{
		ActorID:    uuid.New(),
		ActorRoles: []string{"trainee"},
		Action:     PermTaskRead,
	})

	assert.True(t, d.Allowed)
	assert.Equal(t, http.StatusOK, d.HTTPStatus)
}

func TestDecide_PureFunction(t *testing.T) {
	in := Input{
		ActorID:    uuid.New(),
		ActorRoles: []string{"admin"},
		Action:     PermProgramPublish,
	}
	first := Decide(in)
	second := Decide(in)
	assert.Equal(t, first, second)
}
