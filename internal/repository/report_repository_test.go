package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietqa/accred-api/internal/models"
)

func TestUpdateContentStaleSeq(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WithArgs("Title", "Body", models.ContentMethodOnlineEditor,
			sql.NullString{}, sqlmock.AnyArg(), "report-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	report := &models.Report{
		ID:            "report-1",
		Title:         "Title",
		Content:       "Body",
		ContentMethod: models.ContentMethodOnlineEditor,
	}
	ok, err := repo.UpdateContentWithVersion(context.Background(), report, 3, nil)
	require.NoError(t, err)
	assert.False(t, ok, "a stale update_seq must not match any row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContentAppliedWithoutSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WithArgs("Title", "Body", models.ContentMethodOnlineEditor,
			sql.NullString{}, sqlmock.AnyArg(), "report-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report := &models.Report{
		ID:            "report-1",
		Title:         "Title",
		Content:       "Body",
		ContentMethod: models.ContentMethodOnlineEditor,
	}
	ok, err := repo.UpdateContentWithVersion(context.Background(), report, 3, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContentCommitsSnapshotWithEdit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO report_versions").
		WithArgs("version-1", "report-1", "Old title", "old content",
			sql.NullString{}, "alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version_number"}).AddRow(3))
	mock.ExpectCommit()

	report := &models.Report{
		ID:            "report-1",
		Title:         "New title",
		Content:       "new content",
		ContentMethod: models.ContentMethodOnlineEditor,
	}
	version := &models.ReportVersion{
		ID:        "version-1",
		ReportID:  "report-1",
		Title:     "Old title",
		Content:   "old content",
		ChangedBy: "alice",
		CreatedAt: time.Now().UTC(),
	}
	ok, err := repo.UpdateContentWithVersion(context.Background(), report, 3, version)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, version.VersionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContentRollsBackWhenSnapshotFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO report_versions").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	report := &models.Report{
		ID:            "report-1",
		Title:         "New title",
		Content:       "new content",
		ContentMethod: models.ContentMethodOnlineEditor,
	}
	version := &models.ReportVersion{
		ID:        "version-1",
		ReportID:  "report-1",
		Title:     "Old title",
		Content:   "old content",
		ChangedBy: "alice",
		CreatedAt: time.Now().UTC(),
	}
	_, err := repo.UpdateContentWithVersion(context.Background(), report, 3, version)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetApprovalCascadesEvidenceForCriteriaReport(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	report := &models.Report{
		ID:             "report-1",
		AcademicYearID: "year-1",
		CriteriaID:     sql.NullString{String: "crit-1", Valid: true},
		Status:         models.ReportStatusApproved,
		ApprovedBy:     sql.NullString{String: "admin-1", Valid: true},
		ApprovedAt:     sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE evidences SET").
		WithArgs(models.EvidenceStatusApproved, sqlmock.AnyArg(), "crit-1", "year-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	err := repo.SetApprovalWithCascade(context.Background(), report, models.EvidenceStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetApprovalSkipsCascadeWithoutCriteria(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	report := &models.Report{
		ID:             "report-1",
		AcademicYearID: "year-1",
		Status:         models.ReportStatusApproved,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetApprovalWithCascade(context.Background(), report, models.EvidenceStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetApprovalRollsBackOnCascadeFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	report := &models.Report{
		ID:             "report-1",
		AcademicYearID: "year-1",
		CriteriaID:     sql.NullString{String: "crit-1", Valid: true},
		Status:         models.ReportStatusApproved,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE evidences SET").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SetApprovalWithCascade(context.Background(), report, models.EvidenceStatusApproved)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithCodeRetriesOnCollision(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	report := &models.Report{
		ID:             "report-1",
		AcademicYearID: "year-1",
		ReportType:     models.ReportTypeCriteria,
		Status:         models.ReportStatusDraft,
		ContentMethod:  models.ContentMethodOnlineEditor,
		CreatedBy:      "user-1",
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
		WithArgs("CA-2025-01-01-%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("INSERT INTO reports").
		WillReturnError(&pq.Error{Code: pqUniqueViolation})
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
		WithArgs("CA-2025-01-01-%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO reports").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateWithCode(context.Background(), report, "CA-2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "CA-2025-01-01-005", report.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
