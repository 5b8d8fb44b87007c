package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/models"
)

func TestTasksHandler_Create(t *testing.T) {
	task := &models.Task{ID: uuid.New(), Label: "Set up laptop"}
	svc := &mockTaskService{task: task}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	req := authedRequest(t, http.MethodPost, "/api/tasks", CreateTaskRequest{
		UserID:    uuid.New(),
		ProgramID: uuid.New(),
		Label:     "Set up laptop",
	}, uuid.New())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.capturedCreate)
	assert.Equal(t, "Set up laptop", svc.capturedCreate.Label)
}

func TestTasksHandler_Patch_OwnerMarksDone(t *testing.T) {
	task := &models.Task{ID: uuid.New(), Label: "Set up laptop", Done: true}
	svc := &mockTaskService{task: task}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	req := authedRequest(t, http.MethodPatch, "/api/tasks/"+task.ID.String(), map[string]any{"done": true}, uuid.New())
	req.SetPathValue("id", task.ID.String())
	rec := httptest.NewRecorder()
	h.Patch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"done": true}, svc.capturedPatch)

	var got models.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.True(t, got.Done)
}

func TestTasksHandler_Patch_MalformedTimestamp(t *testing.T) {
	svc := &mockTaskService{err: fmt.Errorf("malformed scheduled_for: %w", apperrors.ErrValidation)}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	taskID := uuid.New()
	req := authedRequest(t, http.MethodPatch, "/api/tasks/"+taskID.String(), map[string]any{"scheduled_for": "next tuesday"}, uuid.New())
	req.SetPathValue("id", taskID.String())
	rec := httptest.NewRecorder()
	h.Patch(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksHandler_Delete(t *testing.T) {
	svc := &mockTaskService{}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	taskID := uuid.New()
	req := authedRequest(t, http.MethodDelete, "/api/tasks/"+taskID.String(), nil, uuid.New())
	req.SetPathValue("id", taskID.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, taskID, svc.deletedID)
}

func TestTasksHandler_Get_NotFound(t *testing.T) {
	svc := &mockTaskService{err: fmt.Errorf("task not found: %w", apperrors.ErrNotFound)}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	taskID := uuid.New()
	req := authedRequest(t, http.MethodGet, "/api/tasks/"+taskID.String(), nil, uuid.New())
	req.SetPathValue("id", taskID.String())
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksHandler_List(t *testing.T) {
	svc := &mockTaskService{tasks: []*models.Task{{ID: uuid.New()}, {ID: uuid.New()}}}
	h := NewTasksHandler(svc, &mockActorService{}, zap.NewNop())

	req := authedRequest(t, http.MethodGet, "/api/tasks", nil, uuid.New())
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Items, 2)
}
