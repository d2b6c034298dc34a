package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

func newExportService(taskRepo *stubTaskRepo, reportRepo *stubReportRepo) *ExportService {
	tasks, _ := newTaskService(taskRepo, &stubTaskPermissions{allow: true})
	reports, _ := newReportService(reportRepo, &stubReportPermissions{allow: true})
	return NewExportService(tasks, reports, nil)
}

func TestTasksCSVContainsTaskRows(t *testing.T) {
	taskRepo := newStubTaskRepo()
	taskRepo.tasks["task-1"] = &models.Task{
		ID:             "task-1",
		TaskCode:       "T2025-00001",
		AcademicYearID: "year-1",
		ProgramID:      "prog-1",
		StandardID:     "std-1",
		ReportType:     models.ReportTypeStandard,
		Status:         models.TaskStatusInProgress,
		Description:    "write the standard 1 report",
		AssignedTo:     pq.StringArray{"alice"},
		CreatedBy:      "admin",
	}
	svc := newExportService(taskRepo, newStubReportRepo())

	data, filename, err := svc.TasksCSV(context.Background(), testYear(), dto.TaskListQuery{}, claims("admin", models.RoleAdmin))

	require.NoError(t, err)
	require.Equal(t, "tasks-2025-2026.csv", filename)
	body := string(data)
	require.True(t, strings.HasPrefix(body, "Task Code,"))
	require.Contains(t, body, "T2025-00001")
	require.Contains(t, body, models.TaskStatusInProgress)
}

func TestReportPDFRendersAccessibleReport(t *testing.T) {
	reportRepo := newStubReportRepo()
	seedReport(reportRepo, models.ReportStatusApproved)
	svc := newExportService(newStubTaskRepo(), reportRepo)

	data, filename, err := svc.ReportPDF(context.Background(), testYear(), "report-1", claims("alice", models.RoleReporter))

	require.NoError(t, err)
	require.Equal(t, "CA-2025-01-01-001.pdf", filename)
	require.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestReportPDFHonoursVisibility(t *testing.T) {
	reportRepo := newStubReportRepo()
	seedReport(reportRepo, models.ReportStatusDraft)
	svc := newExportService(newStubTaskRepo(), reportRepo)

	_, _, err := svc.ReportPDF(context.Background(), testYear(), "report-1", claims("stranger", models.RoleReporter))

	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
