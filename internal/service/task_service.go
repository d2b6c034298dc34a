package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/internal/workflow"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type taskStore interface {
	NextTaskCode(ctx context.Context, yearID string, year int) (string, error)
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	ListActiveByCriteria(ctx context.Context, criteriaID, standardID, yearID string) ([]models.Task, error)
}

type taskStructureStore interface {
	GetStandardByID(ctx context.Context, id string) (*models.Standard, error)
	GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error)
}

type taskPermissionChecker interface {
	CanAssignReporters(ctx context.Context, userID, role, standardID, criteriaID, yearID string) (bool, error)
	InvalidateUser(ctx context.Context, userID, yearID string)
}

type auditRecorder interface {
	Record(userID, action, entityType, entityID string, detail interface{})
}

// TaskService orchestrates the writing-assignment lifecycle.
type TaskService struct {
	repo        taskStore
	structure   taskStructureStore
	permissions taskPermissionChecker
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskStore, structure taskStructureStore, permissions taskPermissionChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		repo:        repo,
		structure:   structure,
		permissions: permissions,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// Create registers a new task. The actor must be privileged or hold an
// active task granting assignment authority at the requested scope.
func (s *TaskService) Create(ctx context.Context, year *models.AcademicYear, req dto.CreateTaskRequest, actor *models.JWTClaims) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if req.ReportType == models.ReportTypeCriteria && req.CriteriaID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a criteria task requires criteriaId")
	}
	if req.ReportType != models.ReportTypeCriteria {
		req.CriteriaID = ""
	}

	allowed, err := s.permissions.CanAssignReporters(ctx, actor.UserID, actor.Role, req.StandardID, req.CriteriaID, year.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no assignment authority at the requested scope")
	}

	standard, err := s.structure.GetStandardByID(ctx, req.StandardID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load standard")
	}
	if standard == nil || standard.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "standard not found in academic year")
	}

	criteriaID := sql.NullString{}
	if req.CriteriaID != "" {
		criteria, err := s.structure.GetCriteriaByID(ctx, req.CriteriaID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
		}
		if criteria == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "criteria not found")
		}
		if criteria.StandardID != req.StandardID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "criteria does not belong to the given standard")
		}
		criteriaID = sql.NullString{String: criteria.ID, Valid: true}
	}

	code, err := s.repo.NextTaskCode(ctx, year.ID, year.StartYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate task code")
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:             uuid.NewString(),
		TaskCode:       code,
		AcademicYearID: year.ID,
		ProgramID:      standard.ProgramID,
		OrganizationID: standard.OrganizationID,
		StandardID:     standard.ID,
		CriteriaID:     criteriaID,
		ReportType:     req.ReportType,
		Status:         models.TaskStatusPending,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.DueDate != nil {
		task.DueDate = sql.NullTime{Time: req.DueDate.UTC(), Valid: true}
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	s.audit.Record(actor.UserID, models.AuditTaskCreated, "task", task.ID, map[string]string{"taskCode": task.TaskCode})
	s.invalidateAssignees(ctx, task.AssignedTo, year.ID)
	return task, nil
}

// Update edits a task. Description, assignees and due date are freely
// editable by the creator, an assignee or a privileged actor. The report
// type may only change while the task is still pending, and status changes
// go through the transition table unless the actor is privileged.
func (s *TaskService) Update(ctx context.Context, year *models.AcademicYear, taskID string, req dto.UpdateTaskRequest, actor *models.JWTClaims) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.getInYear(ctx, year, taskID)
	if err != nil {
		return nil, err
	}
	if !models.IsPrivileged(actor.Role) && task.CreatedBy != actor.UserID && !task.HasAssignee(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator, an assignee or a manager may update this task")
	}

	previousAssignees := append([]string(nil), task.AssignedTo...)

	if req.ReportType != nil && *req.ReportType != task.ReportType {
		if task.Status != models.TaskStatusPending {
			return nil, appErrors.Clone(appErrors.ErrConflict, "reportType can only change while the task is pending")
		}
		if *req.ReportType == models.ReportTypeCriteria && !task.CriteriaID.Valid {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a criteria task requires criteriaId")
		}
		task.ReportType = *req.ReportType
		if task.ReportType != models.ReportTypeCriteria {
			task.CriteriaID = sql.NullString{}
		}
	}

	if req.Status != nil && *req.Status != task.Status {
		if !models.IsPrivileged(actor.Role) && !workflow.TaskMachine.Allowed(task.Status, *req.Status) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("cannot transition task from %s to %s", task.Status, *req.Status))
		}
		task.Status = *req.Status
	}

	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	if req.DueDate != nil {
		task.DueDate = sql.NullTime{Time: req.DueDate.UTC(), Valid: true}
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	s.audit.Record(actor.UserID, models.AuditTaskUpdated, "task", task.ID, nil)
	s.invalidateAssignees(ctx, previousAssignees, year.ID)
	s.invalidateAssignees(ctx, task.AssignedTo, year.ID)
	return task, nil
}

// SubmitReport moves the task to submitted. Only a current assignee may
// submit, and only from pending, in_progress or rejected.
func (s *TaskService) SubmitReport(ctx context.Context, year *models.AcademicYear, taskID string, actor *models.JWTClaims) (*models.Task, error) {
	task, err := s.getInYear(ctx, year, taskID)
	if err != nil {
		return nil, err
	}
	if !task.HasAssignee(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only an assignee may submit this task")
	}
	if !workflow.SubmitSources[task.Status] {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot submit from status %s", task.Status))
	}

	task.Status = models.TaskStatusSubmitted
	task.SubmittedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit task")
	}

	s.audit.Record(actor.UserID, models.AuditTaskSubmitted, "task", task.ID, nil)
	return task, nil
}

// ReviewReport completes or rejects a submitted task. Privileged actors
// only; rejection requires a reason.
func (s *TaskService) ReviewReport(ctx context.Context, year *models.AcademicYear, taskID string, req dto.ReviewTaskRequest, actor *models.JWTClaims) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if !models.IsPrivileged(actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admin or manager may review tasks")
	}
	if req.Status == models.TaskStatusRejected && req.RejectionReason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires a reason")
	}

	task, err := s.getInYear(ctx, year, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot review from status %s", task.Status))
	}

	now := time.Now().UTC()
	task.Status = req.Status
	task.ReviewedBy = sql.NullString{String: actor.UserID, Valid: true}
	task.ReviewedAt = sql.NullTime{Time: now, Valid: true}
	if req.Status == models.TaskStatusRejected {
		task.RejectionReason = sql.NullString{String: req.RejectionReason, Valid: true}
	} else {
		task.RejectionReason = sql.NullString{}
	}
	task.UpdatedAt = now

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review task")
	}

	s.audit.Record(actor.UserID, models.AuditTaskReviewed, "task", task.ID, map[string]string{"status": task.Status})
	s.invalidateAssignees(ctx, task.AssignedTo, year.ID)
	return task, nil
}

// Delete hard-deletes a task and every report attached to it.
func (s *TaskService) Delete(ctx context.Context, year *models.AcademicYear, taskID string, actor *models.JWTClaims) error {
	task, err := s.getInYear(ctx, year, taskID)
	if err != nil {
		return err
	}
	if !models.IsPrivileged(actor.Role) && task.CreatedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or a manager may delete this task")
	}

	if err := s.repo.Delete(ctx, task.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}

	s.audit.Record(actor.UserID, models.AuditTaskDeleted, "task", task.ID, map[string]string{"taskCode": task.TaskCode})
	s.invalidateAssignees(ctx, task.AssignedTo, year.ID)
	return nil
}

// GetByID fetches a single task visible to the actor.
func (s *TaskService) GetByID(ctx context.Context, year *models.AcademicYear, taskID string, actor *models.JWTClaims) (*models.Task, error) {
	task, err := s.getInYear(ctx, year, taskID)
	if err != nil {
		return nil, err
	}
	if !models.IsPrivileged(actor.Role) && task.CreatedBy != actor.UserID && !task.HasAssignee(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this task")
	}
	return task, nil
}

// List returns tasks in the year. Unprivileged actors see their own tasks
// unless they filter by createdByMe.
func (s *TaskService) List(ctx context.Context, year *models.AcademicYear, query dto.TaskListQuery, actor *models.JWTClaims) ([]models.Task, int, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task filter")
	}

	filter := models.TaskFilter{
		AcademicYearID: year.ID,
		Status:         query.Status,
		ReportType:     query.ReportType,
		StandardID:     query.StandardID,
		CriteriaID:     query.CriteriaID,
		Search:         query.Search,
		SortBy:         query.SortBy,
		SortOrder:      query.SortOrder,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}
	if query.AssignedToMe {
		filter.AssignedTo = actor.UserID
	}
	if query.CreatedByMe {
		filter.CreatedBy = actor.UserID
	}
	if !models.IsPrivileged(actor.Role) && !query.CreatedByMe {
		filter.AssignedTo = actor.UserID
	}

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, total, nil
}

// ListByCriteria returns the active tasks whose scope covers a criterion.
func (s *TaskService) ListByCriteria(ctx context.Context, year *models.AcademicYear, criteriaID string) ([]models.Task, error) {
	criteria, err := s.structure.GetCriteriaByID(ctx, criteriaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
	}
	if criteria == nil || criteria.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "criteria not found in academic year")
	}

	tasks, err := s.repo.ListActiveByCriteria(ctx, criteria.ID, criteria.StandardID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) getInYear(ctx context.Context, year *models.AcademicYear, taskID string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task == nil || task.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found in academic year")
	}
	return task, nil
}

func (s *TaskService) invalidateAssignees(ctx context.Context, userIDs []string, yearID string) {
	for _, userID := range userIDs {
		s.permissions.InvalidateUser(ctx, userID, yearID)
	}
}
