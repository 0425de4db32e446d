// Package projection derives the single human-facing status of an
// application from its stage sub-states. Project never mutates its argument,
// never fails, and treats any missing sub-state as not started.
package projection

import (
	"fmt"
	"strings"

	"tenancy-workflow/internal/models"
)

type Status struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

func Project(app *models.TenancyApplication) Status {
	if app == nil {
		return Status{Label: "Unknown", Detail: "No application data"}
	}

	switch app.Status {
	case models.StatusDraft:
		return Status{Label: "Draft", Detail: "Interest registered"}
	case models.StatusRejected:
		if app.StatusReason == models.ReasonCreditCheck {
			return Status{Label: "Rejected", Detail: "Credit check did not meet the landlord's criteria"}
		}
		return Status{Label: "Rejected", Detail: "Application rejected"}
	case models.StatusCancelled:
		return Status{Label: "Cancelled", Detail: "Application cancelled"}
	case models.StatusCompleted:
		return Status{Label: "Completed", Detail: "Tenancy complete"}
	}

	switch EffectiveStage(app) {
	case models.StageCompletion:
		return completion(app.Stage6)
	case models.StageMoveIn:
		return moveIn(app.Stage5)
	case models.StageAgreement:
		return agreement(app.Stage4)
	case models.StageFinancials:
		return financials(app.Stage3)
	case models.StageBackgroundChecks:
		if app.Stage2 != nil && !backgroundStarted(app) {
			return viewing(&app.Stage1)
		}
		return background(app)
	default:
		return viewing(&app.Stage1)
	}
}

// EffectiveStage is currentStage clamped to 1..6, and back to 2 when a later
// stage was recorded before background checks actually completed.
func EffectiveStage(app *models.TenancyApplication) int {
	stage := app.CurrentStage
	if stage < models.StageViewing {
		stage = models.StageViewing
	}
	if stage > models.StageCompletion {
		stage = models.StageCompletion
	}
	if stage >= models.StageFinancials && (app.Stage2 == nil || app.Stage2.Status != models.BackgroundComplete) {
		stage = models.StageBackgroundChecks
	}
	return stage
}

// backgroundStarted reports whether stage 2 has anything to show beyond its
// seeded default. Until then the viewing outcome is the more useful label.
func backgroundStarted(app *models.TenancyApplication) bool {
	s := app.Stage2
	if s.Status != models.BackgroundPending || s.LandlordDecision.Status != models.DecisionPending {
		return true
	}
	if sum := app.Stage1.Summary; sum != nil && sum.ApplicantResponse != nil {
		return sum.ApplicantResponse.Status == models.DecisionConfirmed
	}
	return false
}

func viewing(s *models.ViewingStage) Status {
	if s.Status != models.ViewingAgreed {
		return Status{Label: "Viewing requested", Detail: "Waiting for the landlord to arrange a viewing"}
	}

	sum := s.Summary
	if sum == nil || sum.SentToApplicantAt == nil {
		if sum != nil && sum.ViewingOccurred {
			return Status{Label: "Viewing completed", Detail: "Landlord is preparing the viewing summary"}
		}
		return Status{Label: "Viewing scheduled", Detail: viewingWhen(s.Details)}
	}

	resp := sum.ApplicantResponse
	if resp == nil {
		return Status{Label: "Awaiting applicant confirmation", Detail: "Viewing summary sent to applicant"}
	}
	switch resp.Status {
	case models.DecisionConfirmed:
		return Status{Label: "Viewing confirmed", Detail: "Applicant wishes to proceed"}
	case models.DecisionDeclined:
		return Status{Label: "Viewing declined", Detail: "Applicant does not wish to proceed"}
	default:
		return Status{Label: "Applicant query", Detail: resp.Comment}
	}
}

func viewingWhen(d *models.ViewingDetails) string {
	if d == nil || d.Date == "" {
		return "Viewing agreed"
	}
	return strings.TrimSpace(fmt.Sprintf("Viewing on %s %s", d.Date, d.Time))
}

func background(app *models.TenancyApplication) Status {
	s := app.Stage2
	if s == nil {
		return Status{Label: "Background checks not started", Detail: "Waiting for the applicant's consent"}
	}

	switch s.LandlordDecision.Status {
	case models.DecisionFail:
		return Status{Label: "Refused", Detail: "Landlord declined the application"}
	case models.DecisionPass:
		if s.LandlordDecision.NotifiedAt == nil {
			return Status{Label: "Approved", Detail: "Decision letter not yet sent"}
		}
	}

	switch s.Status {
	case models.BackgroundComplete:
		return Status{Label: "Background checks complete", Detail: "Applicant approved"}
	case models.BackgroundDeclined:
		return Status{Label: "Consent declined", Detail: "Applicant declined background checks"}
	case models.BackgroundAgreed:
		return Status{Label: "Background checks in progress", Detail: checksProgress(app)}
	default:
		return Status{Label: "Awaiting consent", Detail: "Applicant to consent to background checks"}
	}
}

func checksProgress(app *models.TenancyApplication) string {
	var done, total int
	for _, party := range app.Parties() {
		pp := app.Party(party)
		total += 3
		if pp == nil {
			continue
		}
		if pp.CreditCheck != nil {
			done++
		}
		if pp.EmployerVerification != nil && pp.EmployerVerification.Status == models.VerificationCompleted {
			done++
		}
		if pp.PreviousLandlordReference != nil && pp.PreviousLandlordReference.Status == models.VerificationCompleted {
			done++
		}
	}
	return fmt.Sprintf("%d of %d checks complete", done, total)
}

func financials(s *models.FinancialStage) Status {
	if s == nil {
		return Status{Label: "Financials not started", Detail: "Waiting for the landlord to request payment"}
	}
	switch s.Status {
	case models.FinancialRequested:
		return Status{Label: "Payment requested", Detail: "Waiting for the applicant's payment"}
	case models.FinancialPaid:
		return Status{Label: "Payment received", Detail: "Agreement to follow"}
	default:
		return Status{Label: "Financials pending", Detail: "Waiting for the landlord to request payment"}
	}
}

func agreement(s *models.AgreementStage) Status {
	if s == nil {
		return Status{Label: "Agreement not started", Detail: "Tenancy agreement being prepared"}
	}
	switch s.Status {
	case models.AgreementSent:
		return Status{Label: "Agreement sent", Detail: "Waiting for signatures"}
	case models.AgreementSigned:
		return Status{Label: "Agreement signed", Detail: "Move-in to be arranged"}
	default:
		return Status{Label: "Agreement pending", Detail: "Tenancy agreement being prepared"}
	}
}

func moveIn(s *models.MoveInStage) Status {
	if s == nil {
		return Status{Label: "Move-in not started", Detail: "Move-in date to be agreed"}
	}
	switch s.Status {
	case models.MoveInScheduled:
		if s.Date != "" {
			return Status{Label: "Move-in scheduled", Detail: "Moving in on " + s.Date}
		}
		return Status{Label: "Move-in scheduled", Detail: "Move-in date agreed"}
	case models.MoveInCompleted:
		return Status{Label: "Moved in", Detail: "Tenancy under way"}
	default:
		return Status{Label: "Move-in pending", Detail: "Move-in date to be agreed"}
	}
}

func completion(s *models.CompletionStage) Status {
	if s == nil || s.Status != models.CompletionComplete {
		return Status{Label: "Completing", Detail: "Final paperwork in progress"}
	}
	return Status{Label: "Completed", Detail: "Tenancy complete"}
}
