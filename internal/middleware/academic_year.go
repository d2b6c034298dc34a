package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/pkg/response"
)

// HeaderAcademicYear selects the academic year of a request. When absent,
// the year flagged current is used.
const HeaderAcademicYear = "X-Academic-Year-Id"

// ContextAcademicYearKey is where the resolved year lives in the Gin
// context.
const ContextAcademicYearKey = "academicYear"

type yearResolver interface {
	Resolve(ctx context.Context, headerID string) (*models.AcademicYear, error)
}

// AcademicYear resolves the request's academic year scope.
func AcademicYear(years yearResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := years.Resolve(c.Request.Context(), c.GetHeader(HeaderAcademicYear))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextAcademicYearKey, year)
		c.Next()
	}
}

// YearFromContext returns the resolved academic year, if present.
func YearFromContext(c *gin.Context) (*models.AcademicYear, bool) {
	v, exists := c.Get(ContextAcademicYearKey)
	if !exists {
		return nil, false
	}
	year, ok := v.(*models.AcademicYear)
	return year, ok
}
