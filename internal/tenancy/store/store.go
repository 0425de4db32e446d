// Package store persists the tenancy application aggregate as one document.
//
// Every write replaces the whole document and is guarded by the version the
// caller read: a save against a stale version fails with VERSION_CONFLICT and
// leaves the stored document untouched. A successful save increments Version
// on the caller's copy.
package store

import (
	"context"

	"tenancy-workflow/internal/models"
)

type Repository interface {
	// Create inserts a new application. A second application for the same
	// applicant and property fails with DUPLICATE_APPLICATION.
	Create(ctx context.Context, app *models.TenancyApplication) error
	Get(ctx context.Context, id string) (*models.TenancyApplication, error)
	FindByTokenHash(ctx context.Context, hash string) (*models.TenancyApplication, error)
	FindByApplicantAndProperty(ctx context.Context, applicantID, propertyID string) (*models.TenancyApplication, error)
	Save(ctx context.Context, app *models.TenancyApplication) error
}
