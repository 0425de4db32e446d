// Package engine is the stage transition engine. Each exported operation is
// one domain event: it loads the application, checks the caller and the
// preconditions, mutates the stage sub-state and commits the whole document
// with a compare-and-swap on its version. Audit and notification run after
// the commit and can never fail the operation.
package engine

import (
	"context"
	"net/url"
	"strings"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/common/metrics"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/projection"
	"tenancy-workflow/internal/tenancy/store"
	"tenancy-workflow/internal/tenancy/token"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tokens issues and validates single-use bearer tokens.
type Tokens interface {
	Issue(kind token.Kind) (string, *models.TokenGrant, error)
	Validate(ctx context.Context, kind token.Kind, presented string) (*token.Match, error)
}

// CriteriaSource returns a landlord's credit thresholds, or the system
// defaults when none are configured.
type CriteriaSource interface {
	GetCriteria(ctx context.Context, landlordID string) (models.Criteria, error)
}

type Notifier interface {
	Build(template, to string, channel models.Channel, data map[string]interface{}) (models.Message, error)
	Send(ctx context.Context, msg models.Message) bool
}

// Directory resolves human-readable labels and profile contacts.
type Directory interface {
	Property(ctx context.Context, propertyID string) (*models.Property, error)
	User(ctx context.Context, userID string) (*models.Contact, error)
	ReferenceContacts(ctx context.Context, userID string) (models.ReferenceContacts, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, ev models.AuditEvent)
}

type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

type Config struct {
	// Location is the timezone viewing dates are compared in.
	Location *time.Location
	// LinkBaseURL prefixes the links sent to token holders.
	LinkBaseURL string
}

type Dependencies struct {
	Store     store.Repository
	Tokens    Tokens
	Criteria  CriteriaSource
	Notifier  Notifier
	Directory Directory
	Audit     AuditRecorder
	Tracer    Tracer
	Logger    logger.Logger
}

type Engine struct {
	config    Config
	store     store.Repository
	tokens    Tokens
	criteria  CriteriaSource
	notifier  Notifier
	directory Directory
	audit     AuditRecorder
	tracer    Tracer
	logger    logger.Logger
	now       func() time.Time
}

func New(config Config, deps Dependencies) *Engine {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if deps.Tracer == nil {
		deps.Tracer = otelTracer{tracer: otel.Tracer("tenancy-workflow/engine")}
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Engine{
		config:    config,
		store:     deps.Store,
		tokens:    deps.Tokens,
		criteria:  deps.Criteria,
		notifier:  deps.Notifier,
		directory: deps.Directory,
		audit:     deps.Audit,
		tracer:    deps.Tracer,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// WithClock replaces the engine's clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

type otelTracer struct {
	tracer trace.Tracer
}

func (t otelTracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Result is the outcome of a committed event. DeliveryFailures lists the
// notifications that could not be sent; they never fail the event.
type Result struct {
	Application      *models.TenancyApplication
	IssuedToken      string
	DeliveryFailures []*errors.StandardError
}

// Summary is the caller-facing view of a Result.
type Summary struct {
	ApplicationID    string   `json:"applicationId"`
	Status           string   `json:"status"`
	StatusReason     string   `json:"statusReason,omitempty"`
	CurrentStage     int      `json:"currentStage"`
	Version          int64    `json:"version"`
	StatusLabel      string   `json:"statusLabel"`
	StatusDetail     string   `json:"statusDetail"`
	DeliveryFailures []string `json:"deliveryFailures,omitempty"`
}

func (r *Result) Summary() Summary {
	s := summarize(r.Application)
	for _, f := range r.DeliveryFailures {
		s.DeliveryFailures = append(s.DeliveryFailures, f.Details)
	}
	return s
}

func summarize(app *models.TenancyApplication) Summary {
	status := projection.Project(app)
	return Summary{
		ApplicationID: app.ID,
		Status:        string(app.Status),
		StatusReason:  app.StatusReason,
		CurrentStage:  app.CurrentStage,
		Version:       app.Version,
		StatusLabel:   status.Label,
		StatusDetail:  status.Detail,
	}
}

// event describes one domain event invocation.
type event struct {
	name          string
	actor         models.Actor
	applicationID string
	roles         []models.Role
}

// change collects what a mutation wants recorded and sent once the new
// state is committed.
type change struct {
	now         time.Time
	description string
	metadata    map[string]interface{}
	notices     []notice
	token       string
}

type notice struct {
	template string
	channel  models.Channel
	to       string
	landlord bool
	data     map[string]interface{}
}

func (c *change) set(key string, value interface{}) {
	c.metadata[key] = value
}

func (c *change) email(template, to string, data map[string]interface{}) {
	c.notices = append(c.notices, notice{template: template, channel: models.ChannelEmail, to: to, data: data})
}

func (c *change) sms(template, to string, data map[string]interface{}) {
	c.notices = append(c.notices, notice{template: template, channel: models.ChannelSMS, to: to, data: data})
}

// emailLandlord is resolved through the directory after the commit.
func (c *change) emailLandlord(template string, data map[string]interface{}) {
	c.notices = append(c.notices, notice{template: template, channel: models.ChannelEmail, landlord: true, data: data})
}

type mutation func(app *models.TenancyApplication, ch *change) error

// apply runs an authenticated event against an existing application.
func (e *Engine) apply(ctx context.Context, ev event, mutate mutation) (*Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "tenancy."+ev.name,
		attribute.String("application.id", ev.applicationID),
		attribute.String("actor.role", string(ev.actor.Role)),
	)
	defer span.End()

	app, err := e.load(ctx, ev)
	if err != nil {
		return nil, e.fail(span, ev, err)
	}

	res, err := e.commit(ctx, ev, app, mutate)
	if err != nil {
		return nil, e.fail(span, ev, err)
	}
	return res, nil
}

// applyWithToken runs an event authorised by a bearer token instead of a
// session. check validates the payload and runs before the token is looked
// at, so a malformed submission never touches it.
func (e *Engine) applyWithToken(ctx context.Context, name string, kind token.Kind, presented string, check func() error, mutate func(app *models.TenancyApplication, match *token.Match, ch *change) error) (*Result, error) {
	ev := event{name: name, actor: models.Actor{ID: string(kind), Role: models.RoleTokenHolder}}

	ctx, span := e.tracer.StartSpan(ctx, "tenancy."+name, attribute.String("token.kind", string(kind)))
	defer span.End()

	if err := check(); err != nil {
		return nil, e.fail(span, ev, err)
	}

	match, err := e.tokens.Validate(ctx, kind, presented)
	if err != nil {
		return nil, e.fail(span, ev, err)
	}
	ev.applicationID = match.Application.ID
	span.SetAttributes(attribute.String("application.id", ev.applicationID))

	res, err := e.commit(ctx, ev, match.Application, func(app *models.TenancyApplication, ch *change) error {
		return mutate(app, match, ch)
	})
	if err != nil {
		return nil, e.fail(span, ev, err)
	}
	return res, nil
}

// load fetches the application and checks the caller may act on it. Any
// ownership or role mismatch is reported as not found.
func (e *Engine) load(ctx context.Context, ev event) (*models.TenancyApplication, error) {
	if err := checkActor(ev.actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.applicationID) == "" {
		return nil, errors.NewFieldError("applicationId", "applicationId is required")
	}

	app, err := e.store.Get(ctx, ev.applicationID)
	if err != nil {
		return nil, err
	}
	if !owns(app, ev.actor, ev.roles) {
		return nil, errors.NewNotFoundError("application", ev.applicationID)
	}
	return app, nil
}

func checkActor(actor models.Actor) error {
	if strings.TrimSpace(actor.ID) == "" || actor.Role == "" {
		return errors.NewUnauthorizedError("actor id and role are required")
	}
	return nil
}

func owns(app *models.TenancyApplication, actor models.Actor, roles []models.Role) bool {
	for _, role := range roles {
		if actor.Role != role {
			continue
		}
		switch role {
		case models.RoleLandlord:
			return actor.ID == app.LandlordID
		case models.RoleApplicant:
			return actor.ID == app.ApplicantID
		}
	}
	return false
}

// commit mutates app, saves it and runs the post-commit side effects.
func (e *Engine) commit(ctx context.Context, ev event, app *models.TenancyApplication, mutate mutation) (*Result, error) {
	if app.Status.IsTerminal() {
		return nil, errors.NewPreconditionFailedError("application is " + string(app.Status))
	}

	prevStatus, prevStage := app.Status, app.CurrentStage
	ch := &change{now: e.now().UTC(), metadata: map[string]interface{}{}}

	if err := mutate(app, ch); err != nil {
		return nil, err
	}

	app.UpdatedAt = ch.now
	if err := e.store.Save(ctx, app); err != nil {
		return nil, err
	}

	if app.Status != prevStatus {
		ch.set("previousStatus", string(prevStatus))
		ch.set("status", string(app.Status))
	}
	if app.CurrentStage != prevStage {
		ch.set("previousStage", prevStage)
		ch.set("currentStage", app.CurrentStage)
	}

	return e.finish(ctx, ev, app, ch), nil
}

// finish records the audit event and dispatches notifications.
func (e *Engine) finish(ctx context.Context, ev event, app *models.TenancyApplication, ch *change) *Result {
	log := e.logger.With(map[string]interface{}{
		"applicationId": app.ID,
		"event":         ev.name,
	})

	e.audit.Record(ctx, models.AuditEvent{
		ActorID:     ev.actor.ID,
		ActorRole:   ev.actor.Role,
		Action:      ev.name,
		TargetID:    app.ID,
		Description: ch.description,
		Metadata:    ch.metadata,
		OccurredAt:  ch.now,
	})

	res := &Result{Application: app, IssuedToken: ch.token}
	if len(ch.notices) > 0 {
		res.DeliveryFailures = e.dispatch(ctx, app, ch.notices, log)
	}

	metrics.TenancyTransitions.WithLabelValues(ev.name, "applied").Inc()
	log.Info("event applied", map[string]interface{}{
		"status":       string(app.Status),
		"currentStage": app.CurrentStage,
		"version":      app.Version,
	})
	return res
}

func (e *Engine) dispatch(ctx context.Context, app *models.TenancyApplication, notices []notice, log logger.Logger) []*errors.StandardError {
	base := e.letterData(ctx, app, log)

	var failures []*errors.StandardError
	for _, n := range notices {
		to := n.to
		if n.landlord {
			to = e.landlordEmail(ctx, app, log)
		}

		data := make(map[string]interface{}, len(base)+len(n.data))
		for k, v := range base {
			data[k] = v
		}
		for k, v := range n.data {
			data[k] = v
		}

		msg, err := e.notifier.Build(n.template, to, n.channel, data)
		if err != nil {
			failures = append(failures, errors.NewUpstreamDeliveryError(string(n.channel), to, err))
			continue
		}
		if !e.notifier.Send(ctx, msg) {
			failures = append(failures, errors.NewUpstreamDeliveryError(string(n.channel), to, nil))
		}
	}

	if len(failures) > 0 {
		log.Warn("notifications not delivered", map[string]interface{}{"failed": len(failures)})
	}
	return failures
}

// letterData holds the placeholders shared by every message about app.
// Lookup failures fall back to ids.
func (e *Engine) letterData(ctx context.Context, app *models.TenancyApplication, log logger.Logger) map[string]interface{} {
	address := app.PropertyID
	if p, err := e.directory.Property(ctx, app.PropertyID); err == nil && p.Address != "" {
		address = p.Address
	} else if err != nil {
		log.Warn("property lookup failed", map[string]interface{}{"propertyId": app.PropertyID, "error": err})
	}

	data := map[string]interface{}{
		"applicationId":   app.ID,
		"propertyAddress": address,
		"applicantName":   app.ApplicantName,
	}
	if app.CoTenant != nil {
		data["coTenantName"] = app.CoTenant.Name
	}
	return data
}

func (e *Engine) landlordEmail(ctx context.Context, app *models.TenancyApplication, log logger.Logger) string {
	contact, err := e.directory.User(ctx, app.LandlordID)
	if err != nil {
		log.Warn("landlord lookup failed", map[string]interface{}{"landlordId": app.LandlordID, "error": err})
		return ""
	}
	return contact.Email
}

func (e *Engine) fail(span trace.Span, ev event, err error) error {
	code := errors.CodeOf(err)
	outcome := "rejected"
	if code == errors.ErrCodeInternal || errors.IsRetryableErrorCode(code) {
		outcome = "failed"
	}
	metrics.TenancyTransitions.WithLabelValues(ev.name, outcome).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields := map[string]interface{}{
		"event":     ev.name,
		"errorCode": string(code),
		"error":     err,
	}
	if ev.applicationID != "" {
		fields["applicationId"] = ev.applicationID
	}
	e.logger.Debug("event rejected", fields)
	return err
}

// link builds the URL a token holder follows.
func (e *Engine) link(path, plain string) string {
	q := url.Values{"token": {plain}}
	return strings.TrimRight(e.config.LinkBaseURL, "/") + path + "?" + q.Encode()
}

// today is the current calendar date in the configured timezone.
func (e *Engine) today() time.Time {
	y, m, d := e.now().In(e.config.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.config.Location)
}

var (
	ownerRoles    = []models.Role{models.RoleLandlord, models.RoleApplicant}
	landlordOnly  = []models.Role{models.RoleLandlord}
	applicantOnly = []models.Role{models.RoleApplicant}
)
