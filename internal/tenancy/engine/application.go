package engine

import (
	"context"
	"strings"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/validation"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/notify"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type RegisterInterestInput struct {
	PropertyID     string
	ApplicantName  string
	ApplicantEmail string
	ApplicantTel   string
}

func (in RegisterInterestInput) validate() error {
	var fields []errors.FieldError
	if strings.TrimSpace(in.PropertyID) == "" {
		fields = append(fields, errors.FieldError{Field: "propertyId", Message: "propertyId is required", Code: "REQUIRED"})
	}
	if strings.TrimSpace(in.ApplicantName) == "" {
		fields = append(fields, errors.FieldError{Field: "applicantName", Message: "applicantName is required", Code: "REQUIRED"})
	}
	if !validation.ValidateEmail(in.ApplicantEmail) {
		fields = append(fields, errors.FieldError{Field: "applicantEmail", Message: "applicantEmail must be a valid email address", Code: "INVALID_FORMAT"})
	}
	if in.ApplicantTel != "" && !validation.ValidatePhone(in.ApplicantTel) {
		fields = append(fields, errors.FieldError{Field: "applicantTel", Message: "applicantTel must be a valid phone number", Code: "INVALID_FORMAT"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("Invalid interest registration", fields...)
	}
	return nil
}

// RegisterInterest creates the application in draft on stage 1. There is at
// most one application per applicant and property.
func (e *Engine) RegisterInterest(ctx context.Context, actor models.Actor, in RegisterInterestInput) (*Result, error) {
	ev := event{name: "register_interest", actor: actor}

	ctx, span := e.tracer.StartSpan(ctx, "tenancy."+ev.name, attribute.String("property.id", in.PropertyID))
	defer span.End()

	if err := checkActor(actor); err != nil {
		return nil, e.fail(span, ev, err)
	}
	if actor.Role != models.RoleApplicant {
		return nil, e.fail(span, ev, errors.NewUnauthorizedError("only applicants can register interest"))
	}
	if err := in.validate(); err != nil {
		return nil, e.fail(span, ev, err)
	}

	property, err := e.directory.Property(ctx, in.PropertyID)
	if err != nil {
		return nil, e.fail(span, ev, err)
	}

	existing, err := e.store.FindByApplicantAndProperty(ctx, actor.ID, in.PropertyID)
	switch {
	case err == nil:
		return nil, e.fail(span, ev, errors.NewDuplicateApplicationError(existing.ID))
	case !errors.HasCode(err, errors.ErrCodeNotFound):
		return nil, e.fail(span, ev, err)
	}

	now := e.now().UTC()
	app := &models.TenancyApplication{
		ID:             uuid.New().String(),
		PropertyID:     property.ID,
		LandlordID:     property.LandlordID,
		ApplicantID:    actor.ID,
		ApplicantName:  strings.TrimSpace(in.ApplicantName),
		ApplicantEmail: strings.TrimSpace(in.ApplicantEmail),
		ApplicantTel:   strings.TrimSpace(in.ApplicantTel),
		CurrentStage:   models.StageViewing,
		Status:         models.StatusDraft,
		Stage1:         models.ViewingStage{Status: models.ViewingPending},
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ev.applicationID = app.ID

	if err := e.store.Create(ctx, app); err != nil {
		return nil, e.fail(span, ev, err)
	}

	ch := &change{
		now:         now,
		description: "Applicant registered interest",
		metadata:    map[string]interface{}{"propertyId": app.PropertyID, "status": string(app.Status)},
	}
	ch.emailLandlord(notify.TemplateInterestRegistered, nil)

	return e.finish(ctx, ev, app, ch), nil
}

type CancelInput struct {
	ApplicationID string
	Reason        string
}

// CancelApplication is terminal: no further event is accepted afterwards.
func (e *Engine) CancelApplication(ctx context.Context, actor models.Actor, in CancelInput) (*Result, error) {
	ev := event{name: "cancel_application", actor: actor, applicationID: in.ApplicationID, roles: ownerRoles}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		app.Status = models.StatusCancelled
		app.StatusReason = models.ReasonCancelled

		ch.description = "Application cancelled by " + string(actor.Role)
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			ch.set("reason", reason)
		}

		if actor.Role == models.RoleApplicant {
			ch.emailLandlord(notify.TemplateApplicationCancelled, nil)
		} else {
			ch.email(notify.TemplateApplicationCancelled, app.ApplicantEmail, nil)
		}
		return nil
	})
}

// ProjectStatus returns the projected status of an application to one of
// its owners.
func (e *Engine) ProjectStatus(ctx context.Context, actor models.Actor, applicationID string) (*Summary, error) {
	ev := event{name: "project_status", actor: actor, applicationID: applicationID, roles: ownerRoles}

	ctx, span := e.tracer.StartSpan(ctx, "tenancy."+ev.name, attribute.String("application.id", applicationID))
	defer span.End()

	app, err := e.load(ctx, ev)
	if err != nil {
		return nil, e.fail(span, ev, err)
	}
	s := summarize(app)
	return &s, nil
}
