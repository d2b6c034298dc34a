package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/service"
	"github.com/vietqa/accred-api/pkg/response"
)

// AcademicYearHandler lists the available scoping years.
type AcademicYearHandler struct {
	years *service.AcademicYearService
}

func NewAcademicYearHandler(years *service.AcademicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{years: years}
}

func (h *AcademicYearHandler) List(c *gin.Context) {
	years, err := h.years.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", years)
}

func (h *AcademicYearHandler) Current(c *gin.Context) {
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", year)
}
