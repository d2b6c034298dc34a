package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vietqa/accred-api/internal/models"
)

// TaskRepository persists writing assignments.
type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// NextTaskCode allocates the next task code for a year, e.g. T2025-00042.
// The per-year counter lives in task_code_seqs and is bumped atomically, so
// concurrent creates never collide.
func (r *TaskRepository) NextTaskCode(ctx context.Context, yearID string, year int) (string, error) {
	var seq int64
	err := r.db.GetContext(ctx, &seq, `
		INSERT INTO task_code_seqs (academic_year_id, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (academic_year_id)
		DO UPDATE SET last_seq = task_code_seqs.last_seq + 1
		RETURNING last_seq`, yearID)
	if err != nil {
		return "", fmt.Errorf("next task code: %w", err)
	}
	return fmt.Sprintf("T%d-%05d", year, seq), nil
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tasks (
			id, task_code, academic_year_id, program_id, organization_id,
			standard_id, criteria_id, report_type, status, description,
			assigned_to, created_by, due_date, created_at, updated_at
		) VALUES (
			:id, :task_code, :academic_year_id, :program_id, :organization_id,
			:standard_id, :criteria_id, :report_type, :status, :description,
			:assigned_to, :created_by, :due_date, :created_at, :updated_at
		)`, task)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID fetches a task. Returns (nil, nil) when absent.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.GetContext(ctx, &task, `SELECT * FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// Update rewrites the mutable columns of a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE tasks SET
			description = :description,
			assigned_to = :assigned_to,
			report_type = :report_type,
			status = :status,
			due_date = :due_date,
			submitted_at = :submitted_at,
			reviewed_by = :reviewed_by,
			reviewed_at = :reviewed_at,
			rejection_reason = :rejection_reason,
			updated_at = :updated_at
		WHERE id = :id`, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task and every report attached to it in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_versions WHERE report_id IN (SELECT id FROM reports WHERE task_id = $1)`, id); err != nil {
		return fmt.Errorf("delete report versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reviewer_comments WHERE report_id IN (SELECT id FROM reports WHERE task_id = $1)`, id); err != nil {
		return fmt.Errorf("delete reviewer comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE task_id = $1`, id); err != nil {
		return fmt.Errorf("delete task reports: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete task: %w", err)
	}
	return nil
}

// ListActiveByAssignee returns the user's active tasks in a year. Only
// active tasks grant scoped permissions.
func (r *TaskRepository) ListActiveByAssignee(ctx context.Context, userID, yearID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks
		WHERE $1 = ANY(assigned_to)
		  AND academic_year_id = $2
		  AND status IN ('pending', 'in_progress', 'submitted')
		ORDER BY created_at DESC`, userID, yearID)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	return tasks, nil
}

// ListActiveByCriteria returns the active tasks whose scope covers the given
// criterion: direct criteria tasks, tasks on the parent standard, and
// overall tasks for the year.
func (r *TaskRepository) ListActiveByCriteria(ctx context.Context, criteriaID, standardID, yearID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks
		WHERE academic_year_id = $1
		  AND status IN ('pending', 'in_progress', 'submitted')
		  AND (
			criteria_id = $2
			OR (report_type = 'standard' AND standard_id = $3)
			OR report_type = 'overall_tdg'
		  )
		ORDER BY created_at DESC`, yearID, criteriaID, standardID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by criteria: %w", err)
	}
	return tasks, nil
}

// List returns tasks matching the filter plus the unpaginated total.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	where := []string{"academic_year_id = :academic_year_id"}
	args := map[string]interface{}{
		"academic_year_id": filter.AcademicYearID,
	}

	if filter.Status != "" {
		where = append(where, "status = :status")
		args["status"] = filter.Status
	}
	if filter.ReportType != "" {
		where = append(where, "report_type = :report_type")
		args["report_type"] = filter.ReportType
	}
	if filter.StandardID != "" {
		where = append(where, "standard_id = :standard_id")
		args["standard_id"] = filter.StandardID
	}
	if filter.CriteriaID != "" {
		where = append(where, "criteria_id = :criteria_id")
		args["criteria_id"] = filter.CriteriaID
	}
	if filter.AssignedTo != "" {
		where = append(where, ":assigned_to = ANY(assigned_to)")
		args["assigned_to"] = filter.AssignedTo
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = :created_by")
		args["created_by"] = filter.CreatedBy
	}
	if filter.Search != "" {
		where = append(where, "(task_code ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + filter.Search + "%"
	}

	clause := strings.Join(where, " AND ")

	countQuery, countArgs, err := sqlx.Named(`SELECT COUNT(*) FROM tasks WHERE `+clause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build task count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	args["limit"] = pageSize
	args["offset"] = (page - 1) * pageSize

	// Sort columns come from a fixed set, never from raw input.
	sortBy := "created_at"
	switch filter.SortBy {
	case "due_date", "task_code", "status":
		sortBy = filter.SortBy
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	listQuery, listArgs, err := sqlx.Named(`
		SELECT * FROM tasks WHERE `+clause+`
		ORDER BY `+sortBy+` `+direction+`
		LIMIT :limit OFFSET :offset`, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build task list query: %w", err)
	}

	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}
