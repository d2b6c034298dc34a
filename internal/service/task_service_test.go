package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type stubTaskRepo struct {
	tasks   map[string]*models.Task
	seq     int
	deleted []string
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: map[string]*models.Task{}}
}

func (s *stubTaskRepo) NextTaskCode(_ context.Context, _ string, year int) (string, error) {
	s.seq++
	return fmt.Sprintf("T%d-%05d", year, s.seq), nil
}

func (s *stubTaskRepo) Create(_ context.Context, task *models.Task) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskRepo) GetByID(_ context.Context, id string) (*models.Task, error) {
	return s.tasks[id], nil
}

func (s *stubTaskRepo) Update(_ context.Context, task *models.Task) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.tasks, id)
	return nil
}

func (s *stubTaskRepo) List(_ context.Context, _ models.TaskFilter) ([]models.Task, int, error) {
	out := []models.Task{}
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	return out, len(out), nil
}

func (s *stubTaskRepo) ListActiveByCriteria(_ context.Context, _, _, _ string) ([]models.Task, error) {
	return nil, nil
}

type stubTaskPermissions struct {
	allow       bool
	invalidated []string
}

func (s *stubTaskPermissions) CanAssignReporters(_ context.Context, _, _, _, _, _ string) (bool, error) {
	return s.allow, nil
}

func (s *stubTaskPermissions) InvalidateUser(_ context.Context, userID, _ string) {
	s.invalidated = append(s.invalidated, userID)
}

type stubAudit struct {
	actions []string
}

func (s *stubAudit) Record(_, action, _, _ string, _ interface{}) {
	s.actions = append(s.actions, action)
}

func testYear() *models.AcademicYear {
	return &models.AcademicYear{ID: "year-1", Code: "2025-2026", StartYear: 2025, IsCurrent: true}
}

func claims(userID, role string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func newTaskService(repo *stubTaskRepo, perms *stubTaskPermissions) (*TaskService, *stubAudit) {
	audit := &stubAudit{}
	svc := NewTaskService(repo, permissionFixture(), perms, audit, nil, nil)
	return svc, audit
}

func TestCreateTaskRequiresCriteriaForCriteriaType(t *testing.T) {
	svc, _ := newTaskService(newStubTaskRepo(), &stubTaskPermissions{allow: true})

	_, err := svc.Create(context.Background(), testYear(), dto.CreateTaskRequest{
		Description: "write the criterion analysis",
		StandardID:  "std-1",
		ReportType:  models.ReportTypeCriteria,
		AssignedTo:  []string{"alice"},
	}, claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateTaskDeniedWithoutScopeAuthority(t *testing.T) {
	svc, _ := newTaskService(newStubTaskRepo(), &stubTaskPermissions{allow: false})

	_, err := svc.Create(context.Background(), testYear(), dto.CreateTaskRequest{
		Description: "standard overview",
		StandardID:  "std-1",
		ReportType:  models.ReportTypeStandard,
		AssignedTo:  []string{"alice"},
	}, claims("bob", models.RoleReporter))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreateTaskDerivesScopeFromStandard(t *testing.T) {
	repo := newStubTaskRepo()
	perms := &stubTaskPermissions{allow: true}
	svc, audit := newTaskService(repo, perms)

	task, err := svc.Create(context.Background(), testYear(), dto.CreateTaskRequest{
		Description: "standard overview",
		StandardID:  "std-1",
		ReportType:  models.ReportTypeStandard,
		AssignedTo:  []string{"alice", "carol"},
	}, claims("mgr", models.RoleManager))

	require.NoError(t, err)
	assert.Equal(t, "T2025-00001", task.TaskCode)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, "prog-1", task.ProgramID)
	assert.False(t, task.CriteriaID.Valid)
	assert.Contains(t, audit.actions, models.AuditTaskCreated)
	assert.ElementsMatch(t, []string{"alice", "carol"}, perms.invalidated)
}

func TestCreateTaskCriteriaMustBelongToStandard(t *testing.T) {
	svc, _ := newTaskService(newStubTaskRepo(), &stubTaskPermissions{allow: true})

	_, err := svc.Create(context.Background(), testYear(), dto.CreateTaskRequest{
		Description: "criterion analysis",
		StandardID:  "std-1",
		CriteriaID:  "crit-2a",
		ReportType:  models.ReportTypeCriteria,
		AssignedTo:  []string{"alice"},
	}, claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func seedTask(repo *stubTaskRepo, status string) *models.Task {
	task := &models.Task{
		ID:             "task-1",
		TaskCode:       "T2025-00001",
		AcademicYearID: "year-1",
		StandardID:     "std-1",
		ReportType:     models.ReportTypeStandard,
		Status:         status,
		Description:    "standard overview",
		AssignedTo:     []string{"alice"},
		CreatedBy:      "mgr",
	}
	repo.tasks[task.ID] = task
	return task
}

func TestUpdateReportTypeLockedAfterPending(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusInProgress)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	reportType := models.ReportTypeOverallTDG
	_, err := svc.Update(context.Background(), testYear(), "task-1", dto.UpdateTaskRequest{
		ReportType: &reportType,
	}, claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusOutsideTableConflictsForUnprivileged(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusPending)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	status := models.TaskStatusCompleted
	_, err := svc.Update(context.Background(), testYear(), "task-1", dto.UpdateTaskRequest{
		Status: &status,
	}, claims("alice", models.RoleReporter))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusPrivilegedBypassesTable(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusPending)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	status := models.TaskStatusCompleted
	task, err := svc.Update(context.Background(), testYear(), "task-1", dto.UpdateTaskRequest{
		Status: &status,
	}, claims("mgr", models.RoleManager))

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestSubmitRequiresAssignee(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusInProgress)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	_, err := svc.SubmitReport(context.Background(), testYear(), "task-1", claims("bob", models.RoleReporter))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmitFromSubmittedConflicts(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusSubmitted)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	_, err := svc.SubmitReport(context.Background(), testYear(), "task-1", claims("alice", models.RoleReporter))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubmitSetsStatusAndTimestamp(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusRejected)
	svc, audit := newTaskService(repo, &stubTaskPermissions{allow: true})

	task, err := svc.SubmitReport(context.Background(), testYear(), "task-1", claims("alice", models.RoleReporter))

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusSubmitted, task.Status)
	assert.True(t, task.SubmittedAt.Valid)
	assert.Contains(t, audit.actions, models.AuditTaskSubmitted)
}

func TestReviewRequiresPrivilege(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusSubmitted)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	_, err := svc.ReviewReport(context.Background(), testYear(), "task-1", dto.ReviewTaskRequest{
		Status: models.TaskStatusCompleted,
	}, claims("alice", models.RoleReporter))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewRejectionRequiresReason(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusSubmitted)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	_, err := svc.ReviewReport(context.Background(), testYear(), "task-1", dto.ReviewTaskRequest{
		Status: models.TaskStatusRejected,
	}, claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewFromNonSubmittedConflicts(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusInProgress)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	_, err := svc.ReviewReport(context.Background(), testYear(), "task-1", dto.ReviewTaskRequest{
		Status: models.TaskStatusCompleted,
	}, claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewRejectionRecordsReviewerAndReason(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusSubmitted)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	task, err := svc.ReviewReport(context.Background(), testYear(), "task-1", dto.ReviewTaskRequest{
		Status:          models.TaskStatusRejected,
		RejectionReason: "missing evidence references",
	}, claims("mgr", models.RoleManager))

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRejected, task.Status)
	assert.Equal(t, "missing evidence references", task.RejectionReason.String)
	assert.Equal(t, "mgr", task.ReviewedBy.String)
	assert.True(t, task.ReviewedAt.Valid)
}

func TestDeleteTaskByCreator(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusPending)
	svc, audit := newTaskService(repo, &stubTaskPermissions{allow: true})

	err := svc.Delete(context.Background(), testYear(), "task-1", claims("mgr", models.RoleManager))

	require.NoError(t, err)
	assert.Equal(t, []string{"task-1"}, repo.deleted)
	assert.Contains(t, audit.actions, models.AuditTaskDeleted)
}

func TestTaskNotFoundInOtherYear(t *testing.T) {
	repo := newStubTaskRepo()
	seedTask(repo, models.TaskStatusPending)
	svc, _ := newTaskService(repo, &stubTaskPermissions{allow: true})

	otherYear := &models.AcademicYear{ID: "year-2", StartYear: 2026}
	_, err := svc.GetByID(context.Background(), otherYear, "task-1", claims("mgr", models.RoleManager))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
