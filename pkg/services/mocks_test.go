package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// Configurable repository mocks shared by the service tests. Fields set the
// canned responses; captured* fields record what the service passed in.

type mockProgramRepo struct {
	program  *models.Program
	programs []*models.Program

	createErr     error
	getErr        error
	listErr       error
	updateErr     error
	transitionErr error
	publishErr    error
	archiveErr    error
	restoreErr    error

	capturedCreate     *models.Program
	capturedTitle      string
	capturedFrom       string
	capturedTo         string
	capturedListIDs    []uuid.UUID
	listIDsSet         bool
	publishedID        uuid.UUID
	archivedID         uuid.UUID
	restoredID         uuid.UUID
}

func (m *mockProgramRepo) Create(ctx context.Context, p *models.Program) error {
	m.capturedCreate = p
	if m.createErr == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return m.createErr
}

func (m *mockProgramRepo) GetByID(ctx context.Context, programID uuid.UUID) (*models.Program, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.program, nil
}

func (m *mockProgramRepo) List(ctx context.Context, programIDs []uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.Program, error) {
	m.capturedListIDs = programIDs
	m.listIDsSet = true
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.programs, nil
}

func (m *mockProgramRepo) UpdateTitle(ctx context.Context, programID uuid.UUID, title string) error {
	m.capturedTitle = title
	return m.updateErr
}

func (m *mockProgramRepo) Transition(ctx context.Context, programID uuid.UUID, from, to string) error {
	m.capturedFrom = from
	m.capturedTo = to
	return m.transitionErr
}

func (m *mockProgramRepo) PublishWithLinkRestore(ctx context.Context, programID uuid.UUID) error {
	m.publishedID = programID
	return m.publishErr
}

func (m *mockProgramRepo) Archive(ctx context.Context, programID uuid.UUID) error {
	m.archivedID = programID
	return m.archiveErr
}

func (m *mockProgramRepo) Restore(ctx context.Context, programID uuid.UUID) error {
	m.restoredID = programID
	return m.restoreErr
}

type mockTemplateRepo struct {
	template  *models.Template
	templates []*models.Template
	byLabel   map[string]*models.Template

	createErr  error
	getErr     error
	byLabelErr error
	listErr    error
	updateErr  error
	updated    bool

	capturedCreates []*models.Template
	capturedPatch   map[string]any
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *models.Template) error {
	m.capturedCreates = append(m.capturedCreates, t)
	if m.createErr == nil && t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return m.createErr
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, templateID uuid.UUID) (*models.Template, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.template, nil
}

func (m *mockTemplateRepo) GetByLabel(ctx context.Context, label string) (*models.Template, error) {
	if t, ok := m.byLabel[label]; ok {
		return t, nil
	}
	return nil, m.byLabelErr
}

func (m *mockTemplateRepo) List(ctx context.Context, includeDeleted bool, page repositories.Page) ([]*models.Template, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.templates, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, templateID uuid.UUID, patch map[string]any) (bool, error) {
	m.capturedPatch = patch
	return m.updated, m.updateErr
}

func (m *mockTemplateRepo) Transition(ctx context.Context, templateID uuid.UUID, from, to string) error {
	return nil
}

func (m *mockTemplateRepo) Archive(ctx context.Context, templateID uuid.UUID) error {
	return nil
}

func (m *mockTemplateRepo) Restore(ctx context.Context, templateID uuid.UUID) error {
	return nil
}

type mockLinkRepo struct {
	attachResult *repositories.AttachResult
	detachResult *repositories.DetachResult
	link         *models.ProgramTemplateLink
	updated      bool
	effective    []*models.EffectiveTemplate
	programs     []*models.Program

	attachErr error
	detachErr error
	getErr    error
	updateErr error
	listErr   error

	capturedLink  *models.ProgramTemplateLink
	capturedPatch map[string]any
	detachCalled  bool
}

func (m *mockLinkRepo) Attach(ctx context.Context, link *models.ProgramTemplateLink) (*repositories.AttachResult, error) {
	m.capturedLink = link
	if m.attachErr != nil {
		return nil, m.attachErr
	}
	return m.attachResult, nil
}

func (m *mockLinkRepo) Detach(ctx context.Context, programID, templateID uuid.UUID) (*repositories.DetachResult, error) {
	m.detachCalled = true
	if m.detachErr != nil {
		return nil, m.detachErr
	}
	return m.detachResult, nil
}

func (m *mockLinkRepo) Get(ctx context.Context, programID, templateID uuid.UUID, includeDeleted bool) (*models.ProgramTemplateLink, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.link, nil
}

func (m *mockLinkRepo) UpdateMetadata(ctx context.Context, programID, templateID uuid.UUID, updatedBy uuid.UUID, patch map[string]any) (bool, error) {
	m.capturedPatch = patch
	return m.updated, m.updateErr
}

func (m *mockLinkRepo) ListTemplatesForProgram(ctx context.Context, programID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.EffectiveTemplate, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.effective, nil
}

func (m *mockLinkRepo) ListProgramsForTemplate(ctx context.Context, templateID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.Program, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.programs, nil
}

type mockTaskRepo struct {
	task  *models.Task
	tasks []*models.Task

	createErr error
	getErr    error
	listErr   error
	updateErr error

	capturedCreate *models.Task
	capturedPatch  map[string]any
	capturedFilter repositories.TaskFilter
}

func (m *mockTaskRepo) Create(ctx context.Context, t *models.Task) error {
	m.capturedCreate = t
	if m.createErr == nil && t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return m.createErr
}

func (m *mockTaskRepo) GetByID(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.task, nil
}

func (m *mockTaskRepo) List(ctx context.Context, filter repositories.TaskFilter, page repositories.Page) ([]*models.Task, error) {
	m.capturedFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *mockTaskRepo) UpdateFields(ctx context.Context, taskID uuid.UUID, patch map[string]any) (bool, error) {
	m.capturedPatch = patch
	if m.updateErr != nil {
		return false, m.updateErr
	}
	return true, nil
}

type mockUserRepo struct {
	user  *models.User
	users []*models.User

	createErr error
	getErr    error
	listErr   error
	updateErr error
	statusErr error

	capturedCreate *models.User
	capturedRoles  []string
	capturedStatus string
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	m.capturedCreate = u
	if m.createErr == nil && u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return m.createErr
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepo) List(ctx context.Context, page repositories.Page) ([]*models.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.users, nil
}

func (m *mockUserRepo) UpdateRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	m.capturedRoles = roles
	return m.updateErr
}

func (m *mockUserRepo) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	m.capturedStatus = status
	return m.statusErr
}

type mockMembershipRepo struct {
	programIDs  []uuid.UUID
	memberships []*models.ProgramMembership

	addErr    error
	removeErr error
	getErr    error

	capturedAdd   *models.ProgramMembership
	removedUserID uuid.UUID
}

func (m *mockMembershipRepo) Add(ctx context.Context, mem *models.ProgramMembership) error {
	m.capturedAdd = mem
	return m.addErr
}

func (m *mockMembershipRepo) Remove(ctx context.Context, programID, userID uuid.UUID) error {
	m.removedUserID = userID
	return m.removeErr
}

func (m *mockMembershipRepo) GetProgramIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.programIDs, nil
}

func (m *mockMembershipRepo) GetByProgram(ctx context.Context, programID uuid.UUID) ([]*models.ProgramMembership, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.memberships, nil
}

// Interface checks keep the mocks honest.
var (
	_ repositories.ProgramRepository    = (*mockProgramRepo)(nil)
	_ repositories.TemplateRepository   = (*mockTemplateRepo)(nil)
	_ repositories.LinkRepository       = (*mockLinkRepo)(nil)
	_ repositories.TaskRepository       = (*mockTaskRepo)(nil)
	_ repositories.UserRepository       = (*mockUserRepo)(nil)
	_ repositories.MembershipRepository = (*mockMembershipRepo)(nil)
)
