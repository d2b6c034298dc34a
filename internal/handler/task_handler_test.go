package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/middleware"
	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/internal/service"
	"github.com/vietqa/accred-api/pkg/response"
)

type taskRepoStub struct {
	tasks map[string]*models.Task
	seq   int
}

func newTaskRepoStub() *taskRepoStub {
	return &taskRepoStub{tasks: map[string]*models.Task{}}
}

func (s *taskRepoStub) NextTaskCode(ctx context.Context, yearID string, year int) (string, error) {
	s.seq++
	return fmt.Sprintf("T%d-%05d", year, s.seq), nil
}

func (s *taskRepoStub) Create(ctx context.Context, task *models.Task) error {
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *taskRepoStub) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (s *taskRepoStub) Update(ctx context.Context, task *models.Task) error {
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *taskRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.tasks, id)
	return nil
}

func (s *taskRepoStub) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	out := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	return out, len(out), nil
}

func (s *taskRepoStub) ListActiveByCriteria(ctx context.Context, criteriaID, standardID, yearID string) ([]models.Task, error) {
	return nil, nil
}

type structureStub struct {
	standards map[string]*models.Standard
	criteria  map[string]*models.Criteria
}

func (s *structureStub) GetStandardByID(ctx context.Context, id string) (*models.Standard, error) {
	return s.standards[id], nil
}

func (s *structureStub) GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error) {
	return s.criteria[id], nil
}

type permissionStub struct {
	allow bool
}

func (s *permissionStub) CanAssignReporters(ctx context.Context, userID, role, standardID, criteriaID, yearID string) (bool, error) {
	return s.allow || models.IsPrivileged(role), nil
}

func (s *permissionStub) InvalidateUser(ctx context.Context, userID, yearID string) {}

func (s *permissionStub) AccessibleStandardIDs(ctx context.Context, userID, role, yearID string) ([]string, error) {
	return []string{"std-1"}, nil
}

func (s *permissionStub) AccessibleCriteriaIDs(ctx context.Context, userID, role, yearID string) ([]string, error) {
	return []string{"crit-1"}, nil
}

type auditStub struct{}

func (auditStub) Record(userID, action, entityType, entityID string, detail interface{}) {}

func testStructure() *structureStub {
	return &structureStub{
		standards: map[string]*models.Standard{
			"std-1": {ID: "std-1", AcademicYearID: "year-1", ProgramID: "prog-1", Code: "01", Name: "Standard 1", Status: models.StandardStatusActive},
		},
		criteria: map[string]*models.Criteria{
			"crit-1": {ID: "crit-1", AcademicYearID: "year-1", StandardID: "std-1", Code: "01", Name: "Criteria 1.1"},
		},
	}
}

func testContext(method, path string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, claims)
	c.Set(middleware.ContextAcademicYearKey, &models.AcademicYear{ID: "year-1", Code: "2025-2026", StartYear: 2025, EndYear: 2026})
	return c, w
}

func newTaskHandler(repo *taskRepoStub) *TaskHandler {
	svc := service.NewTaskService(repo, testStructure(), &permissionStub{}, auditStub{}, nil, nil)
	return NewTaskHandler(svc)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestTaskHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTaskRepoStub()
	handler := newTaskHandler(repo)

	payload, _ := json.Marshal(dto.CreateTaskRequest{
		Description: "write the standard 1 self-assessment",
		StandardID:  "std-1",
		ReportType:  models.ReportTypeStandard,
		AssignedTo:  []string{"alice"},
	})
	c, w := testContext(http.MethodPost, "/tasks", payload, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "T2025-00001", data["taskCode"])
	require.Equal(t, models.TaskStatusPending, data["status"])
}

func TestTaskHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTaskHandler(newTaskRepoStub())

	c, w := testContext(http.MethodPost, "/tasks", []byte("{not json"), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decodeEnvelope(t, w).Success)
}

func TestTaskHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTaskHandler(newTaskRepoStub())

	c, w := testContext(http.MethodGet, "/tasks/missing", nil, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "taskId", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandlerSubmitFromCompletedConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTaskRepoStub()
	repo.tasks["task-1"] = &models.Task{
		ID:             "task-1",
		TaskCode:       "T2025-00001",
		AcademicYearID: "year-1",
		ProgramID:      "prog-1",
		StandardID:     "std-1",
		ReportType:     models.ReportTypeStandard,
		Status:         models.TaskStatusCompleted,
		AssignedTo:     pq.StringArray{"alice"},
		CreatedBy:      "admin",
	}
	handler := newTaskHandler(repo)

	c, w := testContext(http.MethodPost, "/tasks/task-1/submit", nil, &models.JWTClaims{UserID: "alice", Role: models.RoleReporter})
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decodeEnvelope(t, w).Success)
}

func TestTaskHandlerReviewRequiresPrivilege(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTaskRepoStub()
	repo.tasks["task-1"] = &models.Task{
		ID:             "task-1",
		AcademicYearID: "year-1",
		ProgramID:      "prog-1",
		StandardID:     "std-1",
		ReportType:     models.ReportTypeStandard,
		Status:         models.TaskStatusSubmitted,
		AssignedTo:     pq.StringArray{"alice"},
		CreatedBy:      "admin",
	}
	handler := newTaskHandler(repo)

	payload, _ := json.Marshal(dto.ReviewTaskRequest{Status: models.TaskStatusCompleted})
	c, w := testContext(http.MethodPost, "/tasks/task-1/review", payload, &models.JWTClaims{UserID: "alice", Role: models.RoleReporter})
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskHandlerReview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTaskRepoStub()
	repo.tasks["task-1"] = &models.Task{
		ID:             "task-1",
		AcademicYearID: "year-1",
		ProgramID:      "prog-1",
		StandardID:     "std-1",
		ReportType:     models.ReportTypeStandard,
		Status:         models.TaskStatusSubmitted,
		AssignedTo:     pq.StringArray{"alice"},
		CreatedBy:      "admin",
	}
	handler := newTaskHandler(repo)

	payload, _ := json.Marshal(dto.ReviewTaskRequest{Status: models.TaskStatusRejected, RejectionReason: "missing evidence references"})
	c, w := testContext(http.MethodPost, "/tasks/task-1/review", payload, &models.JWTClaims{UserID: "manager", Role: models.RoleManager})
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.TaskStatusRejected, repo.tasks["task-1"].Status)
}
