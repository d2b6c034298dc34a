package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/export"
)

// ExportService renders tasks and reports into downloadable files. Access
// rules are those of the underlying services: a caller only exports what
// they could read.
type ExportService struct {
	tasks   *TaskService
	reports *ReportService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(tasks *TaskService, reports *ReportService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		tasks:   tasks,
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

var taskCSVHeaders = []string{"Task Code", "Status", "Report Type", "Standard", "Criteria", "Assigned To", "Due Date", "Description"}

// TasksCSV renders the caller's task listing as CSV.
func (s *ExportService) TasksCSV(ctx context.Context, year *models.AcademicYear, query dto.TaskListQuery, actor *models.JWTClaims) ([]byte, string, error) {
	query.PageSize = 100
	query.Page = 1

	rows := []map[string]string{}
	for {
		tasks, total, err := s.tasks.List(ctx, year, query, actor)
		if err != nil {
			return nil, "", err
		}
		for _, task := range tasks {
			row := map[string]string{
				"Task Code":   task.TaskCode,
				"Status":      task.Status,
				"Report Type": task.ReportType,
				"Standard":    task.StandardID,
				"Assigned To": strings.Join(task.AssignedTo, " "),
				"Description": task.Description,
			}
			if task.CriteriaID.Valid {
				row["Criteria"] = task.CriteriaID.String
			}
			if task.DueDate.Valid {
				row["Due Date"] = task.DueDate.Time.Format("2006-01-02")
			}
			rows = append(rows, row)
		}
		if len(rows) >= total || len(tasks) == 0 {
			break
		}
		query.Page++
	}

	data, err := s.csv.Render(export.Dataset{Headers: taskCSVHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, fmt.Sprintf("tasks-%s.csv", year.Code), nil
}

// ReportPDF renders a single report as a PDF document.
func (s *ExportService) ReportPDF(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) ([]byte, string, error) {
	report, err := s.reports.GetByID(ctx, year, reportID, actor)
	if err != nil {
		return nil, "", err
	}

	meta := []export.MetaLine{
		{Label: "Code", Value: report.Code},
		{Label: "Academic year", Value: year.Name},
		{Label: "Report type", Value: report.ReportType},
		{Label: "Status", Value: report.Status},
	}
	if report.ApprovedAt.Valid {
		meta = append(meta, export.MetaLine{Label: "Reviewed at", Value: report.ApprovedAt.Time.Format("2006-01-02 15:04")})
	}

	body := report.Content
	if body == "" && report.AttachedFileURL.Valid {
		body = "Content delivered as an attached file: " + report.AttachedFileURL.String
	}

	data, err := s.pdf.RenderDocument(export.Document{
		Title: report.Title,
		Meta:  meta,
		Body:  body,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, report.Code + ".pdf", nil
}
