package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/store"
	"tenancy-workflow/internal/tenancy/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	landlord  = models.Actor{ID: "landlord-1", Role: models.RoleLandlord}
	applicant = models.Actor{ID: "applicant-1", Role: models.RoleApplicant}
	stranger  = models.Actor{ID: "landlord-2", Role: models.RoleLandlord}

	london = time.FixedZone("BST", 3600)
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeNotifier struct {
	sent []models.Message
	fail map[models.Channel]bool
}

func (f *fakeNotifier) Build(template, to string, channel models.Channel, data map[string]interface{}) (models.Message, error) {
	return models.Message{
		ID:       fmt.Sprintf("msg-%d", len(f.sent)+1),
		To:       to,
		Channel:  channel,
		Template: template,
		Subject:  fmt.Sprint(data["propertyAddress"]),
		Body:     fmt.Sprint(data["link"]),
	}, nil
}

func (f *fakeNotifier) Send(_ context.Context, msg models.Message) bool {
	f.sent = append(f.sent, msg)
	return msg.To != "" && !f.fail[msg.Channel]
}

func (f *fakeNotifier) to(template string) []string {
	var out []string
	for _, m := range f.sent {
		if m.Template == template {
			out = append(out, m.To)
		}
	}
	return out
}

type fakeDirectory struct {
	properties map[string]*models.Property
	users      map[string]*models.Contact
	contacts   map[string]models.ReferenceContacts
	contactErr error
}

func (f *fakeDirectory) Property(_ context.Context, id string) (*models.Property, error) {
	if p, ok := f.properties[id]; ok {
		return p, nil
	}
	return nil, errors.NewNotFoundError("property", id)
}

func (f *fakeDirectory) User(_ context.Context, id string) (*models.Contact, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.NewNotFoundError("user", id)
}

func (f *fakeDirectory) ReferenceContacts(_ context.Context, id string) (models.ReferenceContacts, error) {
	if f.contactErr != nil {
		return models.ReferenceContacts{}, f.contactErr
	}
	return f.contacts[id], nil
}

type fakeCriteria struct {
	criteria models.Criteria
	err      error
}

func (f *fakeCriteria) GetCriteria(_ context.Context, landlordID string) (models.Criteria, error) {
	if f.err != nil {
		return models.Criteria{}, f.err
	}
	c := f.criteria
	c.LandlordID = landlordID
	return c, nil
}

type captureAudit struct {
	events []models.AuditEvent
}

func (c *captureAudit) Record(_ context.Context, ev models.AuditEvent) {
	c.events = append(c.events, ev)
}

func (c *captureAudit) last() models.AuditEvent {
	return c.events[len(c.events)-1]
}

type harness struct {
	engine    *Engine
	store     *store.MemoryStore
	clock     *testClock
	notifier  *fakeNotifier
	directory *fakeDirectory
	criteria  *fakeCriteria
	audit     *captureAudit
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:    store.NewMemoryStore(),
		clock:    &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &fakeNotifier{fail: map[models.Channel]bool{}},
		directory: &fakeDirectory{
			properties: map[string]*models.Property{
				"prop-1": {ID: "prop-1", LandlordID: landlord.ID, Address: "12 Mill Lane"},
			},
			users: map[string]*models.Contact{
				landlord.ID: {ID: landlord.ID, Name: "Lee Landlord", Email: "landlord@example.com"},
			},
			contacts: map[string]models.ReferenceContacts{},
		},
		criteria: &fakeCriteria{criteria: models.Criteria{MinExperianScore: 750, MaxCCJs: 1, Default: true}},
		audit:    &captureAudit{},
	}

	tokens := token.NewGateway(h.store, token.TTLs{
		ViewingConfirmation: 7 * 24 * time.Hour,
		BackgroundInfo:      24 * time.Hour,
		Reference:           7 * 24 * time.Hour,
	}).WithClock(h.clock.now)

	h.engine = New(Config{Location: london, LinkBaseURL: "https://lets.example.com/"}, Dependencies{
		Store:     h.store,
		Tokens:    tokens,
		Criteria:  h.criteria,
		Notifier:  h.notifier,
		Directory: h.directory,
		Audit:     h.audit,
		Logger:    logger.NewTestLogger(t),
	}).WithClock(h.clock.now)
	return h
}

func (h *harness) get(t *testing.T, id string) *models.TenancyApplication {
	t.Helper()
	app, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return app
}

func (h *harness) register(t *testing.T) string {
	t.Helper()
	res, err := h.engine.RegisterInterest(context.Background(), applicant, RegisterInterestInput{
		PropertyID:     "prop-1",
		ApplicantName:  "Ada Applicant",
		ApplicantEmail: "ada@example.com",
		ApplicantTel:   "+447700900123",
	})
	require.NoError(t, err)
	return res.Application.ID
}

func (h *harness) schedule(t *testing.T, id string) {
	t.Helper()
	_, err := h.engine.ScheduleViewing(context.Background(), landlord, ScheduleViewingInput{
		ApplicationID: id, Date: "2026-05-03", Time: "14:00",
	})
	require.NoError(t, err)
}

// sendSummary saves and sends the viewing summary and returns the
// confirmation token.
func (h *harness) sendSummary(t *testing.T, id string) string {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.SaveViewingSummary(ctx, landlord, SaveViewingSummaryInput{
		ApplicationID: id, Notes: "Tidy flat", ViewingOccurred: true,
	})
	require.NoError(t, err)
	res, err := h.engine.SendViewingSummary(ctx, landlord, SendViewingSummaryInput{ApplicationID: id})
	require.NoError(t, err)
	require.NotEmpty(t, res.IssuedToken)
	h.clock.advance(time.Minute)
	return res.IssuedToken
}

func (h *harness) confirmViewing(t *testing.T, id string) {
	t.Helper()
	tok := h.sendSummary(t, id)
	_, err := h.engine.RecordViewingConfirmation(context.Background(), ViewingConfirmationInput{
		Token: tok, Decision: models.DecisionConfirmed,
	})
	require.NoError(t, err)
}

func (h *harness) consent(t *testing.T, id string, contacts models.ReferenceContacts) {
	t.Helper()
	_, err := h.engine.RecordBackgroundConsent(context.Background(), applicant, BackgroundConsentInput{
		ApplicationID: id, Consents: allConsents(), Contacts: contacts,
	})
	require.NoError(t, err)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func allConsents() ConsentInput {
	return ConsentInput{
		CreditCheck:       boolPtr(true),
		EmployerReference: boolPtr(true),
		LandlordReference: boolPtr(true),
		DataSharing:       boolPtr(true),
	}
}

func TestRegisterInterest(t *testing.T) {
	h := newHarness(t)

	id := h.register(t)

	app := h.get(t, id)
	assert.Equal(t, models.StatusDraft, app.Status)
	assert.Equal(t, models.StageViewing, app.CurrentStage)
	assert.Equal(t, models.ViewingPending, app.Stage1.Status)
	assert.Equal(t, landlord.ID, app.LandlordID)
	assert.Equal(t, int64(1), app.Version)

	assert.Equal(t, []string{"landlord@example.com"}, h.notifier.to("interest_registered"))
	assert.Equal(t, "register_interest", h.audit.last().Action)
	assert.Equal(t, models.RoleApplicant, h.audit.last().ActorRole)
}

func TestRegisterInterest_Duplicate(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)

	_, err := h.engine.RegisterInterest(context.Background(), applicant, RegisterInterestInput{
		PropertyID: "prop-1", ApplicantName: "Ada Applicant", ApplicantEmail: "ada@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateApplication))
	assert.Contains(t, err.Error(), id)
}

func TestRegisterInterest_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		actor models.Actor
		input RegisterInterestInput
		code  errors.ErrorCode
	}{
		{
			name:  "no actor",
			actor: models.Actor{},
			input: RegisterInterestInput{PropertyID: "prop-1", ApplicantName: "Ada", ApplicantEmail: "ada@example.com"},
			code:  errors.ErrCodeUnauthorized,
		},
		{
			name:  "landlord cannot apply",
			actor: landlord,
			input: RegisterInterestInput{PropertyID: "prop-1", ApplicantName: "Ada", ApplicantEmail: "ada@example.com"},
			code:  errors.ErrCodeUnauthorized,
		},
		{
			name:  "bad email",
			actor: applicant,
			input: RegisterInterestInput{PropertyID: "prop-1", ApplicantName: "Ada", ApplicantEmail: "not-an-email"},
			code:  errors.ErrCodeValidationFailed,
		},
		{
			name:  "unknown property",
			actor: applicant,
			input: RegisterInterestInput{PropertyID: "prop-9", ApplicantName: "Ada", ApplicantEmail: "ada@example.com"},
			code:  errors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.engine.RegisterInterest(context.Background(), tt.actor, tt.input)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestOwnershipMismatchIsNotFound(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)
	ctx := context.Background()

	_, err := h.engine.ScheduleViewing(ctx, stranger, ScheduleViewingInput{ApplicationID: id, Date: "2026-05-03"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "other landlord")

	_, err = h.engine.ScheduleViewing(ctx, applicant, ScheduleViewingInput{ApplicationID: id, Date: "2026-05-03"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "wrong role")

	_, err = h.engine.ScheduleViewing(ctx, landlord, ScheduleViewingInput{ApplicationID: "missing", Date: "2026-05-03"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "missing application")

	_, err = h.engine.ScheduleViewing(ctx, models.Actor{Role: models.RoleLandlord}, ScheduleViewingInput{ApplicationID: id, Date: "2026-05-03"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized), "anonymous")
}

func TestCancelApplication(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)
	ctx := context.Background()

	res, err := h.engine.CancelApplication(ctx, applicant, CancelInput{ApplicationID: id, Reason: "found another flat"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.Application.Status)
	assert.Equal(t, "found another flat", h.audit.last().Metadata["reason"])
	assert.Equal(t, []string{"landlord@example.com"}, h.notifier.to("application_cancelled"))

	_, err = h.engine.ScheduleViewing(ctx, landlord, ScheduleViewingInput{ApplicationID: id, Date: "2026-05-03"})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed))

	_, err = h.engine.CancelApplication(ctx, landlord, CancelInput{ApplicationID: id})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed))
}

func TestProjectStatus(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)
	h.schedule(t, id)

	summary, err := h.engine.ProjectStatus(context.Background(), applicant, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", summary.Status)
	assert.Equal(t, "Draft", summary.StatusLabel)
	assert.Equal(t, 2, summary.CurrentStage)

	_, err = h.engine.ProjectStatus(context.Background(), stranger, id)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestDeliveryFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)
	h.notifier.fail[models.ChannelEmail] = true

	res, err := h.engine.ScheduleViewing(context.Background(), landlord, ScheduleViewingInput{
		ApplicationID: id, Date: "2026-05-03",
	})
	require.NoError(t, err)
	require.Len(t, res.DeliveryFailures, 1)
	assert.Equal(t, errors.ErrCodeUpstreamDelivery, res.DeliveryFailures[0].Code)
	assert.Len(t, res.Summary().DeliveryFailures, 1)

	assert.Equal(t, models.ViewingAgreed, h.get(t, id).Stage1.Status)
}

func TestUnknownLandlordContactIsDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	delete(h.directory.users, landlord.ID)

	res, err := h.engine.RegisterInterest(context.Background(), applicant, RegisterInterestInput{
		PropertyID: "prop-1", ApplicantName: "Ada", ApplicantEmail: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Len(t, res.DeliveryFailures, 1)
}

// racingStore saves a competing write between the engine's load and save.
type racingStore struct {
	*store.MemoryStore
	raced bool
}

func (r *racingStore) Save(ctx context.Context, app *models.TenancyApplication) error {
	if !r.raced {
		r.raced = true
		other, err := r.MemoryStore.Get(ctx, app.ID)
		if err != nil {
			return err
		}
		other.Stage1.Details = &models.ViewingDetails{Note: "concurrent"}
		if err := r.MemoryStore.Save(ctx, other); err != nil {
			return err
		}
	}
	return r.MemoryStore.Save(ctx, app)
}

func TestConcurrentWriteIsVersionConflict(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)

	racing := &racingStore{MemoryStore: h.store}
	h.engine.store = racing

	_, err := h.engine.ScheduleViewing(context.Background(), landlord, ScheduleViewingInput{ApplicationID: id, Date: "2026-05-03"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeVersionConflict))

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.True(t, stdErr.Retryable)

	app := h.get(t, id)
	assert.Equal(t, models.ViewingPending, app.Stage1.Status, "losing write is not applied")
	assert.Equal(t, "concurrent", app.Stage1.Details.Note)
}
