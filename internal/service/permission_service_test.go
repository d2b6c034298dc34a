package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietqa/accred-api/internal/models"
)

type stubPermissionTaskStore struct {
	tasks []models.Task
	err   error
}

func (s *stubPermissionTaskStore) ListActiveByAssignee(_ context.Context, userID, yearID string) ([]models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Task{}
	for _, task := range s.tasks {
		if task.AcademicYearID == yearID && task.IsActive() && task.HasAssignee(userID) {
			out = append(out, task)
		}
	}
	return out, nil
}

type stubStructureStore struct {
	standards map[string]*models.Standard
	criteria  map[string]*models.Criteria
}

func (s *stubStructureStore) GetStandardByID(_ context.Context, id string) (*models.Standard, error) {
	return s.standards[id], nil
}

func (s *stubStructureStore) GetCriteriaByID(_ context.Context, id string) (*models.Criteria, error) {
	return s.criteria[id], nil
}

func (s *stubStructureStore) ListStandardIDsByYear(_ context.Context, yearID string) ([]string, error) {
	ids := []string{}
	for id, standard := range s.standards {
		if standard.AcademicYearID == yearID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubStructureStore) ListCriteriaIDsByYear(_ context.Context, yearID string) ([]string, error) {
	ids := []string{}
	for id, criteria := range s.criteria {
		if criteria.AcademicYearID == yearID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubStructureStore) ListCriteriaIDsByStandard(_ context.Context, standardID string) ([]string, error) {
	ids := []string{}
	for id, criteria := range s.criteria {
		if criteria.StandardID == standardID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func permissionFixture() *stubStructureStore {
	return &stubStructureStore{
		standards: map[string]*models.Standard{
			"std-1": {ID: "std-1", AcademicYearID: "year-1", ProgramID: "prog-1", Code: "01", Status: models.StandardStatusActive},
			"std-2": {ID: "std-2", AcademicYearID: "year-1", ProgramID: "prog-1", Code: "02", Status: models.StandardStatusActive},
		},
		criteria: map[string]*models.Criteria{
			"crit-1a": {ID: "crit-1a", AcademicYearID: "year-1", StandardID: "std-1", Code: "01"},
			"crit-1b": {ID: "crit-1b", AcademicYearID: "year-1", StandardID: "std-1", Code: "02"},
			"crit-2a": {ID: "crit-2a", AcademicYearID: "year-1", StandardID: "std-2", Code: "01"},
		},
	}
}

func activeTask(user, yearID, reportType, standardID, criteriaID string) models.Task {
	task := models.Task{
		AcademicYearID: yearID,
		ReportType:     reportType,
		StandardID:     standardID,
		Status:         models.TaskStatusInProgress,
		AssignedTo:     []string{user},
	}
	if criteriaID != "" {
		task.CriteriaID = sql.NullString{String: criteriaID, Valid: true}
	}
	return task
}

func TestOverallTaskGrantsEverythingInYear(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeOverallTDG, "std-1", ""),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	for _, standardID := range []string{"std-1", "std-2"} {
		ok, err := svc.CanEditStandard(ctx, "alice", models.RoleReporter, standardID, "year-1")
		require.NoError(t, err)
		assert.True(t, ok, "standard %s", standardID)
	}
	for _, criteriaID := range []string{"crit-1a", "crit-1b", "crit-2a"} {
		ok, err := svc.CanEditCriteria(ctx, "alice", models.RoleReporter, criteriaID, "year-1")
		require.NoError(t, err)
		assert.True(t, ok, "criteria %s", criteriaID)

		ok, err = svc.CanUploadEvidence(ctx, "alice", models.RoleReporter, criteriaID, "year-1")
		require.NoError(t, err)
		assert.True(t, ok, "evidence under %s", criteriaID)
	}
}

func TestStandardTaskCoversOwnSubtreeOnly(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeStandard, "std-1", ""),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	ok, err := svc.CanEditStandard(ctx, "alice", models.RoleReporter, "std-1", "year-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanEditStandard(ctx, "alice", models.RoleReporter, "std-2", "year-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanEditCriteria(ctx, "alice", models.RoleReporter, "crit-1a", "year-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanEditCriteria(ctx, "alice", models.RoleReporter, "crit-2a", "year-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssignReportersAtStandardNeedsOverallTask(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeStandard, "std-1", ""),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	// A standard-scoped task does not grant standard-level assignment
	// authority, even for its own standard.
	ok, err := svc.CanAssignReporters(ctx, "alice", models.RoleReporter, "std-1", "", "year-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// It does grant criteria-level assignment within the subtree.
	ok, err = svc.CanAssignReporters(ctx, "alice", models.RoleReporter, "std-1", "crit-1a", "year-1")
	require.NoError(t, err)
	assert.True(t, ok)

	tasks.tasks = append(tasks.tasks, activeTask("alice", "year-1", models.ReportTypeOverallTDG, "std-1", ""))
	ok, err = svc.CanAssignReporters(ctx, "alice", models.RoleReporter, "std-1", "", "year-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrivilegedRolesBypassScopeChecks(t *testing.T) {
	svc := NewPermissionService(&stubPermissionTaskStore{}, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	for _, role := range []string{models.RoleAdmin, models.RoleManager} {
		ok, err := svc.CanEditStandard(ctx, "anyone", role, "std-2", "year-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.CanAssignReporters(ctx, "anyone", role, "std-2", "", "year-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestInactiveTaskGrantsNothing(t *testing.T) {
	task := activeTask("alice", "year-1", models.ReportTypeCriteria, "std-1", "crit-1a")
	task.Status = models.TaskStatusPending
	tasks := &stubPermissionTaskStore{tasks: []models.Task{task}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	ok, err := svc.CanUploadEvidence(ctx, "alice", models.RoleReporter, "crit-1a", "year-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanUploadEvidence(ctx, "bob", models.RoleReporter, "crit-1a", "year-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Completing the task revokes the grant.
	tasks.tasks[0].Status = models.TaskStatusCompleted
	ok, err = svc.CanUploadEvidence(ctx, "alice", models.RoleReporter, "crit-1a", "year-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessibleSetsForNonReporterRoles(t *testing.T) {
	svc := NewPermissionService(&stubPermissionTaskStore{}, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	for _, role := range []string{models.RoleExpert, models.RoleAdvisor, models.RoleViewer, models.RoleAdmin} {
		standards, err := svc.AccessibleStandardIDs(ctx, "anyone", role, "year-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"std-1", "std-2"}, standards)

		criteria, err := svc.AccessibleCriteriaIDs(ctx, "anyone", role, "year-1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"crit-1a", "crit-1b", "crit-2a"}, criteria)
	}
}

func TestAccessibleSetsForReporter(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeStandard, "std-1", ""),
		activeTask("alice", "year-1", models.ReportTypeCriteria, "std-2", "crit-2a"),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	standards, err := svc.AccessibleStandardIDs(ctx, "alice", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"std-1", "std-2"}, standards)

	// Standard-scoped tasks expand to every criterion under the standard;
	// criteria-scoped tasks contribute their own criterion only.
	criteria, err := svc.AccessibleCriteriaIDs(ctx, "alice", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"crit-1a", "crit-1b", "crit-2a"}, criteria)

	// A reporter with no active tasks sees nothing.
	standards, err = svc.AccessibleStandardIDs(ctx, "bob", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.Empty(t, standards)
}

func TestAccessibleReportTypes(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeStandard, "std-1", ""),
		activeTask("alice", "year-1", models.ReportTypeCriteria, "std-2", "crit-2a"),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	types, err := svc.AccessibleReportTypes(ctx, "alice", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.ReportTypeStandard, models.ReportTypeCriteria}, types)

	types, err = svc.AccessibleReportTypes(ctx, "anyone", models.RoleManager, "year-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.ReportTypeOverallTDG, models.ReportTypeStandard, models.ReportTypeCriteria}, types)

	types, err = svc.AccessibleReportTypes(ctx, "bob", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestReporterWithOverallTaskSeesFullSets(t *testing.T) {
	tasks := &stubPermissionTaskStore{tasks: []models.Task{
		activeTask("alice", "year-1", models.ReportTypeOverallTDG, "std-1", ""),
	}}
	svc := NewPermissionService(tasks, permissionFixture(), nil, nil, PermissionServiceConfig{})
	ctx := context.Background()

	criteria, err := svc.AccessibleCriteriaIDs(ctx, "alice", models.RoleReporter, "year-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"crit-1a", "crit-1b", "crit-2a"}, criteria)
}
