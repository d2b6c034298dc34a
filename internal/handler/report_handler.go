package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/internal/service"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/response"
)

// ReportHandler exposes the report lifecycle over HTTP.
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportAction is a status-changing call with no request body.
type reportAction func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims)

func (h *ReportHandler) withActor(c *gin.Context, action reportAction) {
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
	action(c, year, c.Param("reportId"), claims)
}

func (h *ReportHandler) Create(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, _ string, claims *models.JWTClaims) {
		var req dto.CreateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload"))
			return
		}
		report, err := h.reports.Create(c.Request.Context(), year, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, "report created", report)
	})
}

func (h *ReportHandler) List(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, _ string, claims *models.JWTClaims) {
		var query dto.ReportListQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report filter"))
			return
		}
		reports, total, err := h.reports.List(c.Request.Context(), year, query, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		page, pageSize := normalisePage(query.Page, query.PageSize)
		response.JSON(c, http.StatusOK, reports, &response.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		})
	})
}

func (h *ReportHandler) Get(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		report, err := h.reports.GetByID(c.Request.Context(), year, reportID, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "", report)
	})
}

func (h *ReportHandler) Update(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		var req dto.UpdateReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload"))
			return
		}
		report, err := h.reports.Update(c.Request.Context(), year, reportID, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report updated", report)
	})
}

func (h *ReportHandler) Delete(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		if err := h.reports.Delete(c.Request.Context(), year, reportID, claims); err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report deleted", nil)
	})
}

func (h *ReportHandler) Publish(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		report, err := h.reports.Publish(c.Request.Context(), year, reportID, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report published", report)
	})
}

func (h *ReportHandler) Unpublish(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		report, err := h.reports.Unpublish(c.Request.Context(), year, reportID, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report unpublished", report)
	})
}

func (h *ReportHandler) MakePublic(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		report, err := h.reports.MakePublic(c.Request.Context(), year, reportID, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report made public", report)
	})
}

func (h *ReportHandler) Approve(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		var req dto.ReviewReportRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload"))
			return
		}
		report, err := h.reports.Approve(c.Request.Context(), year, reportID, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report approved", report)
	})
}

func (h *ReportHandler) Reject(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		var req dto.ReviewReportRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload"))
			return
		}
		report, err := h.reports.Reject(c.Request.Context(), year, reportID, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "report rejected", report)
	})
}

func (h *ReportHandler) AssignReporters(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		var req dto.AssignReportersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reporters payload"))
			return
		}
		report, err := h.reports.AssignReporters(c.Request.Context(), year, reportID, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "reporters assigned", report)
	})
}

func (h *ReportHandler) RequestEditPermission(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		report, err := h.reports.RequestEditPermission(c.Request.Context(), year, reportID, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "edit access granted", report)
	})
}

func (h *ReportHandler) ListVersions(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, _ *models.JWTClaims) {
		versions, err := h.reports.ListVersions(c.Request.Context(), year, reportID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "", versions)
	})
}

func (h *ReportHandler) ListComments(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, _ *models.JWTClaims) {
		comments, err := h.reports.ListComments(c.Request.Context(), year, reportID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "", comments)
	})
}

func (h *ReportHandler) AddComment(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		var req dto.AddCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload"))
			return
		}
		comment, err := h.reports.AddComment(c.Request.Context(), year, reportID, req, claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, "comment added", comment)
	})
}

func (h *ReportHandler) ResolveComment(c *gin.Context) {
	h.withActor(c, func(c *gin.Context, year *models.AcademicYear, reportID string, claims *models.JWTClaims) {
		comment, err := h.reports.ResolveComment(c.Request.Context(), year, reportID, c.Param("commentId"), claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "comment resolved", comment)
	})
}
