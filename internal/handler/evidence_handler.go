package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/service"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/response"
)

// EvidenceHandler exposes evidence uploads over HTTP.
type EvidenceHandler struct {
	evidence *service.EvidenceService
}

func NewEvidenceHandler(evidence *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence}
}

func (h *EvidenceHandler) Create(c *gin.Context) {
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

	var req dto.CreateEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evidence payload"))
		return
	}

	evidence, err := h.evidence.Create(c.Request.Context(), year, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "evidence created", evidence)
}

func (h *EvidenceHandler) ListByCriteria(c *gin.Context) {
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	evidences, err := h.evidence.ListByCriteria(c.Request.Context(), year, c.Param("criteriaId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", evidences)
}

func (h *EvidenceHandler) Upload(c *gin.Context) {
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

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a multipart file field is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	evidence, err := h.evidence.AttachFile(c.Request.Context(), year, c.Param("evidenceId"), header.Filename, file, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "evidence file stored", evidence)
}

func (h *EvidenceHandler) Download(c *gin.Context) {
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.evidence.DownloadURL(c.Request.Context(), year, c.Param("evidenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{
		"url":       "/files/" + token,
		"expiresAt": expiresAt,
	})
}

// ResolveDownload streams a file referenced by a signed token. The token is
// the only credential; the route sits outside the JWT group.
func (h *EvidenceHandler) ResolveDownload(c *gin.Context) {
	download, err := h.evidence.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.FileAttachment(download.File.Name(), download.Filename)
}

func (h *EvidenceHandler) Delete(c *gin.Context) {
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

	if err := h.evidence.Delete(c.Request.Context(), year, c.Param("evidenceId"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "evidence deleted", nil)
}
