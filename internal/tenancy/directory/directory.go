// Package directory resolves the human-facing details the engine puts into
// notifications: property addresses and user contacts from Postgres, and a
// user's reference contacts from their Keycloak profile.
package directory

import (
	"context"
	"database/sql"
	stderrors "errors"

	"tenancy-workflow/internal/common/auth"
	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"
)

// Profile attribute names read from Keycloak.
const (
	AttrEmployerEmail         = "employer_email"
	AttrPreviousLandlordEmail = "previous_landlord_email"
	AttrPhone                 = "phone"
)

type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

type Directory struct {
	db       *sql.DB
	identity UserGetter
}

func New(db *sql.DB, identity UserGetter) *Directory {
	return &Directory{db: db, identity: identity}
}

func (d *Directory) Property(ctx context.Context, propertyID string) (*models.Property, error) {
	var p models.Property
	err := d.db.QueryRowContext(ctx,
		`SELECT id, landlord_id, address FROM properties WHERE id = $1`, propertyID,
	).Scan(&p.ID, &p.LandlordID, &p.Address)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("property", propertyID)
		}
		return nil, errors.NewDatabaseQueryFailedError("get property", err)
	}
	return &p, nil
}

func (d *Directory) User(ctx context.Context, userID string) (*models.Contact, error) {
	var (
		c     models.Contact
		phone sql.NullString
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone FROM users WHERE id = $1`, userID,
	).Scan(&c.ID, &c.Name, &c.Email, &phone)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("user", userID)
		}
		return nil, errors.NewDatabaseQueryFailedError("get user", err)
	}
	c.Tel = phone.String
	return &c, nil
}

// ReferenceContacts reads the employer and previous landlord emails a user
// keeps on their profile. Missing attributes come back empty.
func (d *Directory) ReferenceContacts(ctx context.Context, userID string) (models.ReferenceContacts, error) {
	if d.identity == nil {
		return models.ReferenceContacts{}, nil
	}
	user, err := d.identity.GetUser(ctx, userID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return models.ReferenceContacts{}, nil
		}
		return models.ReferenceContacts{}, err
	}
	return models.ReferenceContacts{
		EmployerEmail:         user.Attribute(AttrEmployerEmail),
		PreviousLandlordEmail: user.Attribute(AttrPreviousLandlordEmail),
	}, nil
}
