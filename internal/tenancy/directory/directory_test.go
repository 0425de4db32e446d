package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tenancy-workflow/internal/common/auth"
	apperrors "tenancy-workflow/internal/common/errors"
	commonhttp "tenancy-workflow/internal/common/http"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Property(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, landlord_id, address FROM properties`).
		WithArgs("prop-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "landlord_id", "address"}).AddRow("prop-1", "landlord-1", "1 High St"))
	mock.ExpectQuery(`SELECT id, landlord_id, address FROM properties`).
		WithArgs("prop-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "landlord_id", "address"}))

	d := New(db, nil)

	p, err := d.Property(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "landlord-1", p.LandlordID)
	assert.Equal(t, "1 High St", p.Address)

	_, err = d.Property(context.Background(), "prop-2")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_User(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, email, phone FROM users`).
		WithArgs("applicant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone"}).AddRow("applicant-1", "Ada", "ada@example.com", nil))
	mock.ExpectQuery(`SELECT id, name, email, phone FROM users`).
		WithArgs("applicant-2").
		WillReturnError(errors.New("connection refused"))

	d := New(db, nil)

	c, err := d.User(context.Background(), "applicant-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Empty(t, c.Tel)

	_, err = d.User(context.Background(), "applicant-2")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
}

func keycloakServer(t *testing.T, users map[string]auth.User) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/protocol/openid-connect/token") {
			_ = json.NewEncoder(w).Encode(auth.TokenResponse{AccessToken: "tok", ExpiresIn: 300})
			return
		}
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		u, ok := users[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(u)
	}))
}

func TestDirectory_ReferenceContacts(t *testing.T) {
	srv := keycloakServer(t, map[string]auth.User{
		"applicant-1": {
			ID: "applicant-1",
			Attributes: map[string][]string{
				AttrEmployerEmail:         {" hr@acme.example "},
				AttrPreviousLandlordEmail: {"old@landlord.example"},
			},
		},
	})
	defer srv.Close()

	kc := auth.NewKeycloakClientWithHTTP(srv.URL, "tenancy", "worker", "secret", commonhttp.NewClientFrom(srv.Client()))
	d := New(nil, kc)

	c, err := d.ReferenceContacts(context.Background(), "applicant-1")
	require.NoError(t, err)
	assert.Equal(t, "hr@acme.example", c.EmployerEmail)
	assert.Equal(t, "old@landlord.example", c.PreviousLandlordEmail)

	c, err = d.ReferenceContacts(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, c.EmployerEmail)
}

func TestDirectory_ReferenceContacts_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/token") {
			_ = json.NewEncoder(w).Encode(auth.TokenResponse{AccessToken: "tok", ExpiresIn: 300})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	kc := auth.NewKeycloakClientWithHTTP(srv.URL, "tenancy", "worker", "secret", commonhttp.NewClientFrom(srv.Client()))
	_, err := New(nil, kc).ReferenceContacts(context.Background(), "applicant-1")
	require.Error(t, err)
	assert.True(t, apperrors.Normalize(err).Retryable)
}
