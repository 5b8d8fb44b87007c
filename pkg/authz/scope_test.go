package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveScope_Admin(t *testing.T) {
	actor := Actor{ID: uuid.New(), Roles: []string{"admin"}}
	scope := ResolveScope(actor, ResourceTasks)

	assert.Equal(t, ScopeAll, scope.Kind)
	assert.True(t, scope.AllowsProgram(uuid.New()))
	assert.True(t, scope.AllowsOwner(uuid.New()))
}

func TestResolveScope_Auditor(t *testing.T) {
	actor := Actor{ID: uuid.New(), Roles: []string{"auditor"}}
	scope := ResolveScope(actor, ResourcePrograms)
	assert.Equal(t, ScopeAll, scope.Kind)
}

func TestResolveScope_Manager(t *testing.T) {
	managed := uuid.New()
	other := uuid.New()
	actor := Actor{ID: uuid.New(), Roles: []string{"manager"}, ProgramIDs: []uuid.UUID{managed}}

	scope := ResolveScope(actor, ResourceTasks)

	assert.Equal(t, ScopeOwnedPrograms, scope.Kind)
	assert.True(t, scope.AllowsProgram(managed))
	assert.False(t, scope.AllowsProgram(other))
	assert.ElementsMatch(t, []uuid.UUID{managed}, scope.ProgramIDs())
}

func TestResolveScope_ManagerWithNoPrograms(t *testing.T) {
	actor := Actor{ID: uuid.New(), Roles: []string{"manager"}}
	scope := ResolveScope(actor, ResourceTasks)

	assert.Equal(t, ScopeOwnedPrograms, scope.Kind)
	assert.False(t, scope.AllowsProgram(uuid.New()))
	assert.Empty(t, scope.ProgramIDs())
}

func TestResolveScope_Trainee(t *testing.T) {
	actorID := uuid.New()
	actor := Actor{ID: actorID, Roles: []string{"trainee"}}

	scope := ResolveScope(actor, ResourceTasks)

	assert.Equal(t, ScopeOwnRecords, scope.Kind)
	assert.True(t, scope.AllowsOwner(actorID))
	assert.False(t, scope.AllowsOwner(uuid.New()))
	assert.False(t, scope.AllowsProgram(uuid.New()))
}

func TestResolveScope_AdminWinsOverManager(t *testing.T) {
	actor := Actor{ID: uuid.New(), Roles: []string{"manager", "admin"}}
	scope := ResolveScope(actor, ResourceTasks)
	assert.Equal(t, ScopeAll, scope.Kind)
}

func TestResolveScope_TemplatesAreGlobal(t *testing.T) {
	actor := Actor{ID: uuid.New(), Roles: []string{"trainee"}}
	scope := ResolveScope(actor, ResourceTemplates)
	assert.Equal(t, ScopeAll, scope.Kind)
}

func TestResourceClassForAction(t *testing.T) {
	assert.Equal(t, ResourceTasks, ResourceClassForAction(PermTaskAssign))
	assert.Equal(t, ResourcePrograms, ResourceClassForAction(PermProgramPublish))
	assert.Equal(t, ResourceTemplates, ResourceClassForAction(PermTemplateDelete))
	assert.Equal(t, ResourceUsers, ResourceClassForAction(PermUserManage))
}
