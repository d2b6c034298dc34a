package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/middleware"
	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) (*models.JWTClaims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

func yearFromContext(c *gin.Context) (*models.AcademicYear, error) {
	year, ok := middleware.YearFromContext(c)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "academic year not resolved")
	}
	return year, nil
}

func normalisePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
