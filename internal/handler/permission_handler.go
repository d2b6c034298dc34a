package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/service"
	"github.com/vietqa/accred-api/pkg/response"
)

// PermissionHandler exposes the resolver's read side so clients can shape
// their UI around the caller's scope.
type PermissionHandler struct {
	permissions *service.PermissionService
}

func NewPermissionHandler(permissions *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

func (h *PermissionHandler) AccessibleReportTypes(c *gin.Context) {
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

	types, err := h.permissions.AccessibleReportTypes(c.Request.Context(), claims.UserID, claims.Role, year.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", types)
}

func (h *PermissionHandler) AccessibleStandards(c *gin.Context) {
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

	ids, err := h.permissions.AccessibleStandardIDs(c.Request.Context(), claims.UserID, claims.Role, year.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", ids)
}

func (h *PermissionHandler) AccessibleCriteria(c *gin.Context) {
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

	ids, err := h.permissions.AccessibleCriteriaIDs(c.Request.Context(), claims.UserID, claims.Role, year.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", ids)
}

func (h *PermissionHandler) CanEditStandard(c *gin.Context) {
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

	ok, err := h.permissions.CanEditStandard(c.Request.Context(), claims.UserID, claims.Role, c.Param("standardId"), year.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"allowed": ok})
}

func (h *PermissionHandler) CanEditCriteria(c *gin.Context) {
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

	ok, err := h.permissions.CanEditCriteria(c.Request.Context(), claims.UserID, claims.Role, c.Param("criteriaId"), year.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"allowed": ok})
}
