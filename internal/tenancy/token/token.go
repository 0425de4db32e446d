// Package token issues and validates the single-use bearer tokens that let an
// unauthenticated party perform one action against one application.
//
// Only the SHA-256 hash of a token is stored on the application document, in
// the slot of the flow it belongs to. Lookup is by hash; the flow kind then
// selects which slot must hold it.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/metrics"
	"tenancy-workflow/internal/models"
)

type Kind string

const (
	KindViewingConfirmation  Kind = "viewing_confirmation"
	KindBackgroundInfo       Kind = "co_tenant_background_info"
	KindEmployerVerification Kind = "employer_verification"
	KindLandlordReference    Kind = "landlord_reference"
)

// Rejection reasons, attached to TokenErrors as metadata["reason"].
const (
	ReasonNotFound    = "not_found"
	ReasonAlreadyUsed = "already_used"
	ReasonExpired     = "expired"
)

var (
	ErrNotFound    = errors.New(errors.ErrCodeTokenNotFound, "token not found")
	ErrAlreadyUsed = errors.New(errors.ErrCodeTokenAlreadyUsed, "token already used")
	ErrExpired     = errors.New(errors.ErrCodeTokenExpired, "token expired")
)

// Finder locates the application holding a token hash. It returns a
// NOT_FOUND error when no application holds it.
type Finder interface {
	FindByTokenHash(ctx context.Context, hash string) (*models.TenancyApplication, error)
}

// Match is a successfully validated token: the application it belongs to,
// the party it acts for and the grant to spend.
type Match struct {
	Application *models.TenancyApplication
	Party       models.Party
	Grant       *models.TokenGrant
}

type Gateway struct {
	finder Finder
	ttls   map[Kind]time.Duration
	now    func() time.Time
	random io.Reader
}

// TTLs configures how long each kind of token stays valid.
type TTLs struct {
	ViewingConfirmation time.Duration
	BackgroundInfo      time.Duration
	Reference           time.Duration
}

func NewGateway(finder Finder, ttls TTLs) *Gateway {
	return &Gateway{
		finder: finder,
		ttls: map[Kind]time.Duration{
			KindViewingConfirmation:  ttls.ViewingConfirmation,
			KindBackgroundInfo:       ttls.BackgroundInfo,
			KindEmployerVerification: ttls.Reference,
			KindLandlordReference:    ttls.Reference,
		},
		now:    time.Now,
		random: rand.Reader,
	}
}

// WithClock replaces the time source, for tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// TTL returns the lifetime of tokens of the given kind.
func (g *Gateway) TTL(kind Kind) time.Duration {
	return g.ttls[kind]
}

// Issue creates a fresh token. The plain value is returned to be delivered to
// its holder; only the grant is stored.
func (g *Gateway) Issue(kind Kind) (string, *models.TokenGrant, error) {
	ttl, ok := g.ttls[kind]
	if !ok || ttl <= 0 {
		return "", nil, errors.NewInternalError(fmt.Errorf("no ttl configured for token kind %q", kind))
	}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", nil, errors.NewInternalError(fmt.Errorf("generate token: %w", err))
	}
	plain := base64.RawURLEncoding.EncodeToString(buf)

	now := g.now().UTC()
	return plain, &models.TokenGrant{
		Hash:      Hash(plain),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Validate checks, in order, that the token exists for this kind, has not
// been used and has not expired. The presented value must match exactly. It
// does not spend the token.
func (g *Gateway) Validate(ctx context.Context, kind Kind, presented string) (*Match, error) {
	if presented == "" {
		return nil, g.reject(kind, ReasonNotFound)
	}
	hash := Hash(presented)

	app, err := g.finder.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, g.reject(kind, ReasonNotFound)
		}
		return nil, err
	}

	party, grant := Locate(app, kind, hash)
	if grant == nil {
		return nil, g.reject(kind, ReasonNotFound)
	}
	if grant.Used {
		return nil, g.reject(kind, ReasonAlreadyUsed)
	}
	if !g.now().Before(grant.ExpiresAt) {
		return nil, g.reject(kind, ReasonExpired)
	}

	return &Match{Application: app, Party: party, Grant: grant}, nil
}

func (g *Gateway) reject(kind Kind, reason string) error {
	metrics.TokenRejections.WithLabelValues(string(kind), reason).Inc()

	var base *errors.StandardError
	switch reason {
	case ReasonAlreadyUsed:
		base = ErrAlreadyUsed
	case ReasonExpired:
		base = ErrExpired
	default:
		base = ErrNotFound
	}
	stdErr := *base
	stdErr.Details = fmt.Sprintf("kind: %s", kind)
	stdErr.Timestamp = g.now().UTC()
	return stdErr.WithMetadata("reason", reason)
}

// Reason returns the rejection reason carried by a token error, or "" when
// err is not one.
func Reason(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeTokenNotFound:
		return ReasonNotFound
	case errors.ErrCodeTokenAlreadyUsed:
		return ReasonAlreadyUsed
	case errors.ErrCodeTokenExpired:
		return ReasonExpired
	}
	return ""
}

// Hash returns the stored form of a token.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Locate finds the grant of the given kind holding hash on app.
func Locate(app *models.TenancyApplication, kind Kind, hash string) (models.Party, *models.TokenGrant) {
	if app == nil {
		return "", nil
	}

	switch kind {
	case KindViewingConfirmation:
		if s := app.Stage1.Summary; s != nil && matches(s.Confirmation, hash) {
			return models.PartyApplicant, s.Confirmation
		}
	case KindBackgroundInfo:
		if pp := app.Party(models.PartyCoTenant); pp != nil && pp.BackgroundInfo != nil {
			if g := pp.BackgroundInfo.Token; matches(g, hash) {
				return models.PartyCoTenant, g
			}
		}
	case KindEmployerVerification, KindLandlordReference:
		for _, party := range app.Parties() {
			pp := app.Party(party)
			if pp == nil {
				continue
			}
			var req *models.VerificationRequest
			if kind == KindEmployerVerification && pp.EmployerVerification != nil {
				req = &pp.EmployerVerification.VerificationRequest
			}
			if kind == KindLandlordReference && pp.PreviousLandlordReference != nil {
				req = &pp.PreviousLandlordReference.VerificationRequest
			}
			if req != nil && matches(req.Token, hash) {
				return party, req.Token
			}
		}
	}
	return "", nil
}

func matches(g *models.TokenGrant, hash string) bool {
	return g.Issued() && subtle.ConstantTimeCompare([]byte(g.Hash), []byte(hash)) == 1
}
