package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type academicYearStore interface {
	GetByID(ctx context.Context, id string) (*models.AcademicYear, error)
	GetCurrent(ctx context.Context) (*models.AcademicYear, error)
	List(ctx context.Context) ([]models.AcademicYear, error)
}

// AcademicYearService resolves the academic year context of a request.
type AcademicYearService struct {
	repo   academicYearStore
	logger *zap.Logger
}

func NewAcademicYearService(repo academicYearStore, logger *zap.Logger) *AcademicYearService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{repo: repo, logger: logger}
}

// Resolve returns the year identified by headerID, or the current year when
// the header is empty.
func (s *AcademicYearService) Resolve(ctx context.Context, headerID string) (*models.AcademicYear, error) {
	if headerID != "" {
		year, err := s.repo.GetByID(ctx, headerID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
		}
		if year == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return year, nil
	}

	year, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic year")
	}
	if year == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no current academic year configured")
	}
	return year, nil
}

// List returns every academic year.
func (s *AcademicYearService) List(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}
