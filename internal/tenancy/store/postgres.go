package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"

	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectDocument = `SELECT document, version FROM tenancy_applications`

func (s *PostgresStore) Create(ctx context.Context, app *models.TenancyApplication) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("marshal application: %w", err))
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tenancy_applications (
			id, property_id, landlord_id, applicant_id, status, current_stage,
			version, token_hashes, document, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (applicant_id, property_id) DO NOTHING`,
		app.ID,
		app.PropertyID,
		app.LandlordID,
		app.ApplicantID,
		string(app.Status),
		app.CurrentStage,
		app.Version,
		pq.Array(app.TokenHashes()),
		doc,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return errors.NewDatabaseWriteFailedError("insert application", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseWriteFailedError("insert application", err)
	}
	if n == 0 {
		return errors.NewDuplicateApplicationError(app.ApplicantID + "/" + app.PropertyID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.TenancyApplication, error) {
	row := s.db.QueryRowContext(ctx, selectDocument+` WHERE id = $1`, id)
	return scanApplication(row, "get application", id)
}

// FindByTokenHash uses the GIN index on token_hashes.
func (s *PostgresStore) FindByTokenHash(ctx context.Context, hash string) (*models.TenancyApplication, error) {
	row := s.db.QueryRowContext(ctx, selectDocument+` WHERE token_hashes @> ARRAY[$1]::text[] LIMIT 1`, hash)
	return scanApplication(row, "find by token", "token")
}

func (s *PostgresStore) FindByApplicantAndProperty(ctx context.Context, applicantID, propertyID string) (*models.TenancyApplication, error) {
	row := s.db.QueryRowContext(ctx, selectDocument+` WHERE applicant_id = $1 AND property_id = $2`, applicantID, propertyID)
	return scanApplication(row, "find by applicant", applicantID+"/"+propertyID)
}

// Save replaces the document if its stored version still equals app.Version.
func (s *PostgresStore) Save(ctx context.Context, app *models.TenancyApplication) error {
	expected := app.Version
	app.Version = expected + 1

	doc, err := json.Marshal(app)
	if err != nil {
		app.Version = expected
		return errors.NewInternalError(fmt.Errorf("marshal application: %w", err))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tenancy_applications
		SET status = $3, current_stage = $4, version = $5, token_hashes = $6,
			document = $7, updated_at = $8
		WHERE id = $1 AND version = $2`,
		app.ID,
		expected,
		string(app.Status),
		app.CurrentStage,
		app.Version,
		pq.Array(app.TokenHashes()),
		doc,
		app.UpdatedAt,
	)
	if err != nil {
		app.Version = expected
		return errors.NewDatabaseWriteFailedError("update application", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		app.Version = expected
		return errors.NewDatabaseWriteFailedError("update application", err)
	}
	if n == 0 {
		app.Version = expected
		return errors.NewVersionConflictError(app.ID, expected)
	}
	return nil
}

func scanApplication(row *sql.Row, op, id string) (*models.TenancyApplication, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("application", id)
		}
		return nil, errors.NewDatabaseQueryFailedError(op, err)
	}

	var app models.TenancyApplication
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("decode application %s: %w", id, err))
	}
	// the column is authoritative
	app.Version = version
	return &app, nil
}
