package engine

import (
	"context"
	"strings"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/notify"
)

type LandlordDecisionInput struct {
	ApplicationID string
	Decision      models.DecisionStatus
	Notes         string
}

// RecordLandlordDecision sets the landlord's decision on the background
// checks. Fail refuses the application. The applicant is only told, and the
// workflow only moves on, through NotifyDecision.
//
// A refusal that has already been sent can still be reset to pending, which
// reopens the background checks. A sent pass is final.
func (e *Engine) RecordLandlordDecision(ctx context.Context, actor models.Actor, in LandlordDecisionInput) (*Result, error) {
	ev := event{name: "record_landlord_decision", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		switch in.Decision {
		case models.DecisionPending, models.DecisionPass, models.DecisionFail:
		default:
			return errors.NewFieldError("decision", "decision must be one of pending, pass or fail")
		}
		s, err := decisionStage(app, in.Decision)
		if err != nil {
			return err
		}

		previous := s.LandlordDecision.Status
		if s.LandlordDecision.NotifiedAt != nil {
			ch.set("reopened", true)
			s.LandlordDecision.NotifiedAt = nil
		}
		s.LandlordDecision.Status = in.Decision
		s.LandlordDecision.Notes = strings.TrimSpace(in.Notes)
		if in.Decision == models.DecisionPending {
			s.LandlordDecision.DecidedAt = nil
		} else {
			at := ch.now
			s.LandlordDecision.DecidedAt = &at
		}

		switch {
		case in.Decision == models.DecisionFail:
			app.Status = models.StatusRefused
			app.StatusReason = ""
		case app.Status == models.StatusRefused:
			// Withdrawing a refusal restores whatever the checks say.
			if anyCreditCheckFailed(app) {
				app.Status = models.StatusRejected
				app.StatusReason = models.ReasonCreditCheck
			} else {
				app.Status = models.StatusInProgress
				app.StatusReason = ""
			}
		}

		ch.description = "Landlord decision set to " + string(in.Decision)
		ch.set("decision", string(in.Decision))
		ch.set("previousDecision", string(previous))
		return nil
	})
}

// decisionStage returns the background stage for a decision change. Once a
// fail has been sent the only change allowed is a reset to pending.
func decisionStage(app *models.TenancyApplication, decision models.DecisionStatus) (*models.BackgroundStage, error) {
	s := app.Stage2
	if s == nil || s.Status == models.BackgroundComplete || s.LandlordDecision.NotifiedAt == nil {
		return stage2(app)
	}
	if decision != models.DecisionPending {
		return nil, errors.NewPreconditionFailedError("decision has already been sent, reset it to pending first")
	}
	return s, nil
}

type NotifyDecisionInput struct {
	ApplicationID string
}

// NotifyDecision sends the decision letter to the applicant, and co-tenant
// if any. Only a pass moves the application on to financials.
func (e *Engine) NotifyDecision(ctx context.Context, actor models.Actor, in NotifyDecisionInput) (*Result, error) {
	ev := event{name: "notify_decision", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		s := app.Stage2
		if s == nil || s.LandlordDecision.Status == models.DecisionPending {
			return errors.NewPreconditionFailedError("set a decision before notifying")
		}
		if s.LandlordDecision.NotifiedAt != nil {
			return errors.NewPreconditionFailedError("decision has already been sent")
		}
		decision := s.LandlordDecision
		if decision.Status == models.DecisionPass && app.Status == models.StatusRejected {
			return errors.NewPreconditionFailedError("a failed credit check must be resolved before approving")
		}

		at := ch.now
		s.LandlordDecision.NotifiedAt = &at

		template := notify.TemplateDecisionFail
		if decision.Status == models.DecisionPass {
			template = notify.TemplateDecisionPass
			s.Status = models.BackgroundComplete
			app.AdvanceTo(models.StageFinancials)
			if app.Stage3 == nil {
				app.Stage3 = &models.FinancialStage{Status: models.FinancialPending, UpdatedAt: at}
			}
		}

		data := map[string]interface{}{"notes": decision.Notes}
		ch.email(template, app.ApplicantEmail, data)
		if app.ApplicantTel != "" {
			ch.sms(template, app.ApplicantTel, data)
		}
		if app.CoTenant != nil {
			ch.email(template, app.CoTenant.Email, data)
		}

		ch.description = "Decision " + string(decision.Status) + " sent to applicant"
		ch.set("decision", string(decision.Status))
		return nil
	})
}
