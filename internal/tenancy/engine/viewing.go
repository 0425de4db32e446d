package engine

import (
	"context"
	"regexp"
	"strings"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/validation"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/notify"
	"tenancy-workflow/internal/tenancy/token"
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ScheduleViewingInput struct {
	ApplicationID string
	Date          string
	Time          string
	Note          string
}

// ScheduleViewing agrees a viewing date with the applicant. The date must
// not be before today in the configured timezone.
func (e *Engine) ScheduleViewing(ctx context.Context, actor models.Actor, in ScheduleViewingInput) (*Result, error) {
	ev := event{name: "schedule_viewing", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		if err := e.checkViewingDate(in.Date, in.Time); err != nil {
			return err
		}
		if resp := app.Stage1.Summary.Response(); resp != nil && resp.Status.Terminal() {
			return errors.NewPreconditionFailedError("applicant has already responded to the viewing")
		}

		previous := app.Stage1.Details
		app.Stage1.Details = &models.ViewingDetails{
			Date: in.Date,
			Time: in.Time,
			Note: strings.TrimSpace(in.Note),
		}
		app.Stage1.Status = models.ViewingAgreed
		app.AdvanceTo(models.StageBackgroundChecks)
		if app.Stage2 == nil {
			app.Stage2 = models.NewBackgroundStage()
		}

		ch.description = "Viewing scheduled for " + strings.TrimSpace(in.Date+" "+in.Time)
		ch.set("date", in.Date)
		ch.set("time", in.Time)
		if previous != nil {
			ch.set("previousDate", previous.Date)
			ch.set("previousTime", previous.Time)
		}
		ch.email(notify.TemplateViewingScheduled, app.ApplicantEmail, map[string]interface{}{
			"date": in.Date,
			"time": in.Time,
			"note": app.Stage1.Details.Note,
		})
		return nil
	})
}

func (e *Engine) checkViewingDate(date, at string) error {
	if !validation.ValidateDate(date) {
		return errors.NewFieldError("date", "date must be in YYYY-MM-DD format")
	}
	day, err := time.ParseInLocation("2006-01-02", date, e.config.Location)
	if err != nil {
		return errors.NewFieldError("date", "date is not a valid calendar date")
	}
	if day.Before(e.today()) {
		return errors.NewFieldError("date", "Viewing date cannot be in the past")
	}
	if at != "" && !timePattern.MatchString(at) {
		return errors.NewFieldError("time", "time must be in HH:MM format")
	}
	return nil
}

type SaveViewingSummaryInput struct {
	ApplicationID   string
	Notes           string
	Checklist       []models.ChecklistItem
	Photos          []string
	ViewingOccurred bool
}

// SaveViewingSummary stores the landlord's write-up of the viewing. Once sent
// it is locked until the applicant raises a query.
func (e *Engine) SaveViewingSummary(ctx context.Context, actor models.Actor, in SaveViewingSummaryInput) (*Result, error) {
	ev := event{name: "save_viewing_summary", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		if app.Stage1.Status != models.ViewingAgreed {
			return errors.NewPreconditionFailedError("schedule the viewing before saving a summary")
		}
		sum := app.Stage1.Summary
		if sum == nil {
			sum = &models.ViewingSummary{}
			app.Stage1.Summary = sum
		}
		if resp := sum.ApplicantResponse; resp != nil && resp.Status.Terminal() {
			return errors.NewPreconditionFailedError("applicant has already responded to the viewing")
		}
		if sum.Locked() {
			return errors.NewPreconditionFailedError("viewing summary has been sent and is locked")
		}

		sum.Notes = strings.TrimSpace(in.Notes)
		sum.Checklist = in.Checklist
		sum.Photos = in.Photos
		if in.ViewingOccurred && !sum.ViewingOccurred {
			at := ch.now
			sum.ViewingOccurredAt = &at
		}
		if !in.ViewingOccurred {
			sum.ViewingOccurredAt = nil
		}
		sum.ViewingOccurred = in.ViewingOccurred
		saved := ch.now
		sum.SavedAt = &saved

		ch.description = "Viewing summary saved"
		ch.set("viewingOccurred", in.ViewingOccurred)
		ch.set("checklistItems", len(in.Checklist))
		ch.set("photos", len(in.Photos))
		return nil
	})
}

type SendViewingSummaryInput struct {
	ApplicationID string
}

// SendViewingSummary emails the applicant a single-use link to confirm,
// decline or query the viewing. Re-sending replaces the previous link.
func (e *Engine) SendViewingSummary(ctx context.Context, actor models.Actor, in SendViewingSummaryInput) (*Result, error) {
	ev := event{name: "send_viewing_summary", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		sum := app.Stage1.Summary
		if sum == nil || sum.SavedAt == nil {
			return errors.NewPreconditionFailedError("save the viewing summary before sending it")
		}
		if !sum.ViewingOccurred {
			return errors.NewPreconditionFailedError("viewing has not taken place")
		}
		if resp := sum.ApplicantResponse; resp != nil && resp.Status.Terminal() {
			return errors.NewPreconditionFailedError("applicant has already responded to the viewing")
		}

		plain, grant, err := e.tokens.Issue(token.KindViewingConfirmation)
		if err != nil {
			return err
		}
		resent := sum.SentToApplicantAt != nil

		sent := ch.now
		sum.Confirmation = grant
		sum.SentToApplicantAt = &sent
		sum.ApplicantResponse = nil
		sum.EditingUnlockedAt = nil

		ch.token = plain
		ch.description = "Viewing summary sent to applicant"
		ch.set("resent", resent)
		ch.set("tokenExpiresAt", grant.ExpiresAt)
		ch.email(notify.TemplateViewingSummary, app.ApplicantEmail, map[string]interface{}{
			"link": e.link("/viewing/respond", plain),
		})
		return nil
	})
}

type ViewingConfirmationInput struct {
	Token    string
	Decision models.ViewingDecision
	Comment  string
}

func (in ViewingConfirmationInput) validate() error {
	switch in.Decision {
	case models.DecisionConfirmed, models.DecisionDeclined:
		return nil
	case models.DecisionQuery:
		if strings.TrimSpace(in.Comment) == "" {
			return errors.NewFieldError("comment", "Please tell the landlord what your query is")
		}
		return nil
	default:
		return errors.NewFieldError("decision", "decision must be one of confirmed, declined or query")
	}
}

// RecordViewingConfirmation records the applicant's answer to the viewing
// summary. Confirm and decline spend the token; a query keeps it alive and
// reopens the summary for editing.
func (e *Engine) RecordViewingConfirmation(ctx context.Context, in ViewingConfirmationInput) (*Result, error) {
	return e.applyWithToken(ctx, "record_viewing_confirmation", token.KindViewingConfirmation, in.Token, in.validate,
		func(app *models.TenancyApplication, match *token.Match, ch *change) error {
			sum := app.Stage1.Summary
			comment := strings.TrimSpace(in.Comment)
			sum.ApplicantResponse = &models.ApplicantResponse{
				Status:      in.Decision,
				RespondedAt: ch.now,
				Comment:     comment,
			}

			switch in.Decision {
			case models.DecisionConfirmed:
				match.Grant.MarkUsed(ch.now)
				app.AdvanceTo(models.StageBackgroundChecks)
				if app.Stage2 == nil {
					app.Stage2 = models.NewBackgroundStage()
				}
				if app.Status == models.StatusDraft {
					app.Status = models.StatusInProgress
				}
			case models.DecisionDeclined:
				match.Grant.MarkUsed(ch.now)
				if app.Status == models.StatusDraft {
					app.Status = models.StatusInProgress
				}
			case models.DecisionQuery:
				unlocked := ch.now
				sum.EditingUnlockedAt = &unlocked
			}

			ch.description = "Applicant " + string(in.Decision) + " the viewing"
			ch.set("decision", string(in.Decision))
			if comment != "" {
				ch.set("comment", comment)
			}
			ch.emailLandlord(notify.TemplateViewingResponse, map[string]interface{}{
				"decision": decisionVerb(in.Decision),
				"comment":  comment,
			})
			return nil
		})
}

func decisionVerb(d models.ViewingDecision) string {
	switch d {
	case models.DecisionConfirmed:
		return "confirmed"
	case models.DecisionDeclined:
		return "declined"
	default:
		return "raised a query about"
	}
}
