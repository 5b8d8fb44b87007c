package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// authedRequest builds a request carrying claims for userID, the same shape
// the auth middleware produces.
func authedRequest(t *testing.T, method, target string, body any, userID uuid.UUID) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	return req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, claims))
}

// mockActorService returns a fixed actor.
type mockActorService struct {
	actor authz.Actor
	err   error
}

func (m *mockActorService) Load(ctx context.Context, userID uuid.UUID) (authz.Actor, error) {
	if m.err != nil {
		return authz.Actor{}, m.err
	}
	if m.actor.ID == uuid.Nil {
		m.actor.ID = userID
	}
	return m.actor, nil
}

type mockProgramService struct {
	program  *models.Program
	programs []*models.Program
	err      error

	capturedTitle string
	capturedPatch map[string]any
	capturedID    uuid.UUID
	capturedPage  repositories.Page
}

func (m *mockProgramService) Create(ctx context.Context, actor authz.Actor, title string) (*models.Program, error) {
	m.capturedTitle = title
	return m.program, m.err
}

func (m *mockProgramService) Get(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	m.capturedID = programID
	return m.program, m.err
}

func (m *mockProgramService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Program, error) {
	m.capturedPage = page
	return m.programs, m.err
}

func (m *mockProgramService) Patch(ctx context.Context, actor authz.Actor, programID uuid.UUID, patch map[string]any) (*models.Program, error) {
	m.capturedID = programID
	m.capturedPatch = patch
	return m.program, m.err
}

func (m *mockProgramService) Publish(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	m.capturedID = programID
	return m.program, m.err
}

func (m *mockProgramService) Deprecate(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	m.capturedID = programID
	return m.program, m.err
}

func (m *mockProgramService) Archive(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	m.capturedID = programID
	return m.program, m.err
}

func (m *mockProgramService) Restore(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	m.capturedID = programID
	return m.program, m.err
}

type mockTemplateService struct {
	template  *models.Template
	templates []*models.Template
	err       error

	capturedCreate *models.Template
	capturedPatch  map[string]any
}

func (m *mockTemplateService) Create(ctx context.Context, actor authz.Actor, template *models.Template) (*models.Template, error) {
	m.capturedCreate = template
	return m.template, m.err
}

func (m *mockTemplateService) Get(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return m.template, m.err
}

func (m *mockTemplateService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Template, error) {
	return m.templates, m.err
}

func (m *mockTemplateService) Patch(ctx context.Context, actor authz.Actor, templateID uuid.UUID, patch map[string]any) (*models.Template, error) {
	m.capturedPatch = patch
	return m.template, m.err
}

func (m *mockTemplateService) Publish(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return m.template, m.err
}

func (m *mockTemplateService) Deprecate(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return m.template, m.err
}

func (m *mockTemplateService) Archive(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return m.template, m.err
}

func (m *mockTemplateService) Restore(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return m.template, m.err
}

type mockAssociationService struct {
	attachResult *repositories.AttachResult
	detachResult *repositories.DetachResult
	updated      bool
	effective    []*models.EffectiveTemplate
	programs     []*models.Program
	err          error

	capturedOverrides services.LinkOverrides
	capturedPatch     map[string]any
}

func (m *mockAssociationService) Attach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, overrides services.LinkOverrides) (*repositories.AttachResult, error) {
	m.capturedOverrides = overrides
	return m.attachResult, m.err
}

func (m *mockAssociationService) Detach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID) (*repositories.DetachResult, error) {
	return m.detachResult, m.err
}

func (m *mockAssociationService) UpdateLink(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, patch map[string]any) (bool, error) {
	m.capturedPatch = patch
	return m.updated, m.err
}

func (m *mockAssociationService) ListTemplatesForProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID, incDeleted bool, page repositories.Page) ([]*models.EffectiveTemplate, error) {
	return m.effective, m.err
}

func (m *mockAssociationService) ListProgramsForTemplate(ctx context.Context, actor authz.Actor, templateID uuid.UUID, incDeleted bool, page repositories.Page) ([]*models.Program, error) {
	return m.programs, m.err
}

type mockTaskService struct {
	task  *models.Task
	tasks []*models.Task
	err   error

	capturedCreate *models.Task
	capturedPatch  map[string]any
	deletedID      uuid.UUID
}

func (m *mockTaskService) Create(ctx context.Context, actor authz.Actor, task *models.Task) (*models.Task, error) {
	m.capturedCreate = task
	return m.task, m.err
}

func (m *mockTaskService) Get(ctx context.Context, actor authz.Actor, taskID uuid.UUID) (*models.Task, error) {
	return m.task, m.err
}

func (m *mockTaskService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Task, error) {
	return m.tasks, m.err
}

func (m *mockTaskService) Patch(ctx context.Context, actor authz.Actor, taskID uuid.UUID, patch map[string]any) (*models.Task, error) {
	m.capturedPatch = patch
	return m.task, m.err
}

func (m *mockTaskService) Delete(ctx context.Context, actor authz.Actor, taskID uuid.UUID) error {
	m.deletedID = taskID
	return m.err
}

type mockUserService struct {
	user  *models.User
	users []*models.User
	err   error

	capturedCreate *models.User
	capturedRoles  []string
	capturedStatus string
}

func (m *mockUserService) Create(ctx context.Context, actor authz.Actor, user *models.User) (*models.User, error) {
	m.capturedCreate = user
	return m.user, m.err
}

func (m *mockUserService) Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) List(ctx context.Context, actor authz.Actor, page repositories.Page) ([]*models.User, error) {
	return m.users, m.err
}

func (m *mockUserService) UpdateRoles(ctx context.Context, actor authz.Actor, userID uuid.UUID, roles []string) (*models.User, error) {
	m.capturedRoles = roles
	return m.user, m.err
}

func (m *mockUserService) SetStatus(ctx context.Context, actor authz.Actor, userID uuid.UUID, status string) (*models.User, error) {
	m.capturedStatus = status
	return m.user, m.err
}

type mockMembershipService struct {
	memberships []*models.ProgramMembership
	err         error

	capturedProgramID uuid.UUID
	capturedUserID    uuid.UUID
	capturedRole      string
}

func (m *mockMembershipService) Add(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID, roleInProgram string) error {
	m.capturedProgramID = programID
	m.capturedUserID = userID
	m.capturedRole = roleInProgram
	return m.err
}

func (m *mockMembershipService) Remove(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID) error {
	m.capturedProgramID = programID
	m.capturedUserID = userID
	return m.err
}

func (m *mockMembershipService) ListByProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID) ([]*models.ProgramMembership, error) {
	return m.memberships, m.err
}

// Compile-time interface checks for the mocks.
var (
	_ services.ActorService       = (*mockActorService)(nil)
	_ services.ProgramService     = (*mockProgramService)(nil)
	_ services.TemplateService    = (*mockTemplateService)(nil)
	_ services.AssociationService = (*mockAssociationService)(nil)
	_ services.TaskService        = (*mockTaskService)(nil)
	_ services.UserService        = (*mockUserService)(nil)
	_ services.MembershipService  = (*mockMembershipService)(nil)
)
