package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type permissionTaskStore interface {
	ListActiveByAssignee(ctx context.Context, userID, yearID string) ([]models.Task, error)
}

type permissionStructureStore interface {
	GetStandardByID(ctx context.Context, id string) (*models.Standard, error)
	GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error)
	ListStandardIDsByYear(ctx context.Context, yearID string) ([]string, error)
	ListCriteriaIDsByYear(ctx context.Context, yearID string) ([]string, error)
	ListCriteriaIDsByStandard(ctx context.Context, standardID string) ([]string, error)
}

// PermissionServiceConfig tunes runtime behaviour.
type PermissionServiceConfig struct {
	CacheTTL time.Duration
}

// PermissionService decides scoped write access. Admin and manager bypass
// every check; everyone else is judged by their active tasks in the academic
// year, with broader scopes covering narrower ones: an overall_tdg task
// covers the whole year, a standard task covers its standard and the
// criteria beneath it, a criteria task covers one criterion.
type PermissionService struct {
	tasks     permissionTaskStore
	structure permissionStructureStore
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewPermissionService constructs a PermissionService. cache may be nil.
func NewPermissionService(tasks permissionTaskStore, structure permissionStructureStore, cache *redis.Client, logger *zap.Logger, cfg PermissionServiceConfig) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	return &PermissionService{
		tasks:     tasks,
		structure: structure,
		cache:     cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    logger,
	}
}

// CanEditStandard reports whether the user may edit the standard.
func (s *PermissionService) CanEditStandard(ctx context.Context, userID, role, standardID, yearID string) (bool, error) {
	if models.IsPrivileged(role) {
		return true, nil
	}
	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}
	for _, task := range tasks {
		if task.ReportType == models.ReportTypeOverallTDG {
			return true, nil
		}
		if task.ReportType == models.ReportTypeStandard && task.StandardID == standardID {
			return true, nil
		}
	}
	return false, nil
}

// CanEditCriteria reports whether the user may edit the criterion. A task on
// the parent standard or on the whole year also qualifies.
func (s *PermissionService) CanEditCriteria(ctx context.Context, userID, role, criteriaID, yearID string) (bool, error) {
	if models.IsPrivileged(role) {
		return true, nil
	}
	criteria, err := s.structure.GetCriteriaByID(ctx, criteriaID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
	}
	if criteria == nil {
		return false, appErrors.Clone(appErrors.ErrNotFound, "criteria not found")
	}
	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}
	for _, task := range tasks {
		switch task.ReportType {
		case models.ReportTypeOverallTDG:
			return true, nil
		case models.ReportTypeStandard:
			if task.StandardID == criteria.StandardID {
				return true, nil
			}
		case models.ReportTypeCriteria:
			if task.CriteriaID.Valid && task.CriteriaID.String == criteriaID {
				return true, nil
			}
		}
	}
	return false, nil
}

// CanUploadEvidence reports whether the user may upload evidence under the
// criterion. The rule is identical to editing the criterion.
func (s *PermissionService) CanUploadEvidence(ctx context.Context, userID, role, criteriaID, yearID string) (bool, error) {
	return s.CanEditCriteria(ctx, userID, role, criteriaID, yearID)
}

// CanAssignReporters reports whether the user may create or assign work at
// the given scope. With a criteriaID the rule matches editing that
// criterion. Without one, only an overall_tdg task qualifies: a
// standard-scoped task does not grant standard-level assignment authority.
func (s *PermissionService) CanAssignReporters(ctx context.Context, userID, role, standardID, criteriaID, yearID string) (bool, error) {
	if models.IsPrivileged(role) {
		return true, nil
	}
	if criteriaID != "" {
		return s.CanEditCriteria(ctx, userID, role, criteriaID, yearID)
	}
	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}
	for _, task := range tasks {
		if task.ReportType == models.ReportTypeOverallTDG {
			return true, nil
		}
	}
	return false, nil
}

// AccessibleReportTypes returns the report types the user may create.
// Privileged roles get all three; everyone else gets the distinct types of
// their active tasks.
func (s *PermissionService) AccessibleReportTypes(ctx context.Context, userID, role, yearID string) ([]string, error) {
	if models.IsPrivileged(role) {
		return []string{models.ReportTypeOverallTDG, models.ReportTypeStandard, models.ReportTypeCriteria}, nil
	}
	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}
	seen := map[string]bool{}
	types := []string{}
	for _, task := range tasks {
		if !seen[task.ReportType] {
			seen[task.ReportType] = true
			types = append(types, task.ReportType)
		}
	}
	return types, nil
}

// AccessibleStandardIDs returns the standards the user may see. Every role
// except reporter gets the full year-scoped set; reporters get the standards
// their active tasks reference.
func (s *PermissionService) AccessibleStandardIDs(ctx context.Context, userID, role, yearID string) ([]string, error) {
	if role != models.RoleReporter {
		ids, err := s.structure.ListStandardIDsByYear(ctx, yearID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list standards")
		}
		return ids, nil
	}
	if ids, ok := s.cached(ctx, userID, yearID, "standards"); ok {
		return ids, nil
	}

	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, task := range tasks {
		if task.ReportType == models.ReportTypeOverallTDG {
			all, err := s.structure.ListStandardIDsByYear(ctx, yearID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list standards")
			}
			s.store(ctx, userID, yearID, "standards", all)
			return all, nil
		}
		if task.StandardID != "" && !seen[task.StandardID] {
			seen[task.StandardID] = true
			ids = append(ids, task.StandardID)
		}
	}
	s.store(ctx, userID, yearID, "standards", ids)
	return ids, nil
}

// AccessibleCriteriaIDs returns the criteria the user may see. Reporters get
// the criteria their active tasks reference, with standard-scoped tasks
// expanding to every criterion under the standard.
func (s *PermissionService) AccessibleCriteriaIDs(ctx context.Context, userID, role, yearID string) ([]string, error) {
	if role != models.RoleReporter {
		ids, err := s.structure.ListCriteriaIDsByYear(ctx, yearID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list criteria")
		}
		return ids, nil
	}
	if ids, ok := s.cached(ctx, userID, yearID, "criteria"); ok {
		return ids, nil
	}

	tasks, err := s.tasks.ListActiveByAssignee(ctx, userID, yearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active tasks")
	}

	seen := map[string]bool{}
	ids := []string{}
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	for _, task := range tasks {
		switch task.ReportType {
		case models.ReportTypeOverallTDG:
			all, err := s.structure.ListCriteriaIDsByYear(ctx, yearID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list criteria")
			}
			s.store(ctx, userID, yearID, "criteria", all)
			return all, nil
		case models.ReportTypeStandard:
			under, err := s.structure.ListCriteriaIDsByStandard(ctx, task.StandardID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list criteria")
			}
			add(under)
		case models.ReportTypeCriteria:
			if task.CriteriaID.Valid {
				add([]string{task.CriteriaID.String})
			}
		}
	}
	s.store(ctx, userID, yearID, "criteria", ids)
	return ids, nil
}

// InvalidateUser drops the user's cached accessible sets. Called after any
// task mutation that could change their scope.
func (s *PermissionService) InvalidateUser(ctx context.Context, userID, yearID string) {
	if s.cache == nil {
		return
	}
	keys := []string{
		permissionCacheKey(userID, yearID, "standards"),
		permissionCacheKey(userID, yearID, "criteria"),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("failed to invalidate permission cache",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func permissionCacheKey(userID, yearID, kind string) string {
	return fmt.Sprintf("perm:%s:%s:%s", userID, yearID, kind)
}

func (s *PermissionService) cached(ctx context.Context, userID, yearID, kind string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, permissionCacheKey(userID, yearID, kind)).Result()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (s *PermissionService) store(ctx context.Context, userID, yearID, kind string, ids []string) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, permissionCacheKey(userID, yearID, kind), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache permission set",
			zap.String("user_id", userID), zap.Error(err))
	}
}
