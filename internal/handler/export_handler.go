package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/service"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/response"
)

// ExportHandler streams CSV and PDF renditions of tasks and reports.
type ExportHandler struct {
	exports *service.ExportService
}

func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func (h *ExportHandler) TasksCSV(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query dto.TaskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task filter"))
		return
	}

	data, filename, err := h.exports.TasksCSV(c.Request.Context(), year, query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *ExportHandler) ReportPDF(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, filename, err := h.exports.ReportPDF(c.Request.Context(), year, c.Param("reportId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
