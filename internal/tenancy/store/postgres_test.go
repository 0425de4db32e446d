package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleApplication() *models.TenancyApplication {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &models.TenancyApplication{
		ID:             "0b9f2c1e-6b59-4a4c-9d55-2f7f7a1e0c11",
		PropertyID:     "prop-1",
		LandlordID:     "landlord-1",
		ApplicantID:    "applicant-1",
		ApplicantName:  "Ada Lovelace",
		ApplicantEmail: "ada@example.com",
		CurrentStage:   1,
		Status:         models.StatusDraft,
		Stage1:         models.ViewingStage{Status: models.ViewingPending},
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPostgresStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := sampleApplication()
	mock.ExpectExec(`INSERT INTO tenancy_applications`).
		WithArgs(app.ID, "prop-1", "landlord-1", "applicant-1", "draft", 1, int64(1),
			sqlmock.AnyArg(), sqlmock.AnyArg(), app.CreatedAt, app.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresStore(db).Create(context.Background(), app)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO tenancy_applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresStore(db).Create(context.Background(), sampleApplication())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDuplicateApplication))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := sampleApplication()
	doc, err := json.Marshal(app)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document, version FROM tenancy_applications WHERE id = \$1`).
		WithArgs(app.ID).
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).AddRow(doc, int64(4)))

	got, err := NewPostgresStore(db).Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicantEmail, got.ApplicantEmail)
	assert.Equal(t, int64(4), got.Version, "version column wins over the document")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT document, version FROM tenancy_applications`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}))

	_, err = NewPostgresStore(db).Get(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestPostgresStore_Get_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT document, version FROM tenancy_applications`).
		WillReturnError(errors.New("connection reset"))

	_, err = NewPostgresStore(db).Get(context.Background(), "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
	assert.True(t, apperrors.Normalize(err).Retryable)
}

func TestPostgresStore_FindByTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	doc, _ := json.Marshal(sampleApplication())
	mock.ExpectQuery(`WHERE token_hashes @> ARRAY\[\$1\]::text\[\]`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).AddRow(doc, int64(2)))

	got, err := NewPostgresStore(db).FindByTokenHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "applicant-1", got.ApplicantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := sampleApplication()
	app.Version = 3
	app.Status = models.StatusInProgress

	mock.ExpectExec(`UPDATE tenancy_applications`).
		WithArgs(app.ID, int64(3), "in_progress", 1, int64(4), sqlmock.AnyArg(), sqlmock.AnyArg(), app.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresStore(db).Save(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, int64(4), app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_VersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := sampleApplication()
	app.Version = 3

	mock.ExpectExec(`UPDATE tenancy_applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresStore(db).Save(context.Background(), app)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeVersionConflict))
	assert.Equal(t, int64(3), app.Version, "version is restored on conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_WriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := sampleApplication()
	mock.ExpectExec(`UPDATE tenancy_applications`).
		WillReturnError(errors.New("disk full"))

	err = NewPostgresStore(db).Save(context.Background(), app)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseWriteFailed))
	assert.Equal(t, int64(1), app.Version)
}
