package models

import "time"

type ApplicationStatus string

const (
	StatusDraft      ApplicationStatus = "draft"
	StatusInProgress ApplicationStatus = "in_progress"
	StatusRejected   ApplicationStatus = "rejected"
	StatusRefused    ApplicationStatus = "refused"
	StatusCancelled  ApplicationStatus = "cancelled"
	StatusCompleted  ApplicationStatus = "completed"
)

// IsTerminal reports whether no further domain events may be applied.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Reasons recorded alongside an automatic status change.
const (
	ReasonCreditCheck = "credit_check"
	ReasonCancelled   = "cancelled"
)

const (
	StageViewing          = 1
	StageBackgroundChecks = 2
	StageFinancials       = 3
	StageAgreement        = 4
	StageMoveIn           = 5
	StageCompletion       = 6
)

// TenancyApplication is the root aggregate: one per applicant and property.
// It is always read and written as a whole document.
type TenancyApplication struct {
	ID             string            `json:"id"`
	PropertyID     string            `json:"propertyId"`
	LandlordID     string            `json:"landlordId"`
	ApplicantID    string            `json:"applicantId"`
	ApplicantName  string            `json:"applicantName"`
	ApplicantEmail string            `json:"applicantEmail"`
	ApplicantTel   string            `json:"applicantTel,omitempty"`
	CoTenant       *CoTenant         `json:"coTenant,omitempty"`
	CurrentStage   int               `json:"currentStage"`
	Status         ApplicationStatus `json:"status"`
	StatusReason   string            `json:"statusReason,omitempty"`

	Stage1 ViewingStage     `json:"stage1"`
	Stage2 *BackgroundStage `json:"stage2,omitempty"`
	Stage3 *FinancialStage  `json:"stage3,omitempty"`
	Stage4 *AgreementStage  `json:"stage4,omitempty"`
	Stage5 *MoveInStage     `json:"stage5,omitempty"`
	Stage6 *CompletionStage `json:"stage6,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CoTenant is the optional second signatory.
type CoTenant struct {
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Tel     string    `json:"tel,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// AdvanceTo raises CurrentStage to stage; it never lowers it.
func (a *TenancyApplication) AdvanceTo(stage int) {
	if stage > a.CurrentStage {
		a.CurrentStage = stage
	}
}

// Party returns the background-check progress for p, or nil when that party
// has no sub-state yet.
func (a *TenancyApplication) Party(p Party) *PartyProgress {
	if a.Stage2 == nil {
		return nil
	}
	return a.Stage2.Party(p)
}

// Parties lists the parties present on the application.
func (a *TenancyApplication) Parties() []Party {
	if a.CoTenant != nil {
		return []Party{PartyApplicant, PartyCoTenant}
	}
	return []Party{PartyApplicant}
}

// PartyEmail returns the contact email of p.
func (a *TenancyApplication) PartyEmail(p Party) string {
	if p == PartyCoTenant {
		if a.CoTenant == nil {
			return ""
		}
		return a.CoTenant.Email
	}
	return a.ApplicantEmail
}

// PartyName returns the display name of p.
func (a *TenancyApplication) PartyName(p Party) string {
	if p == PartyCoTenant {
		if a.CoTenant == nil {
			return ""
		}
		return a.CoTenant.Name
	}
	return a.ApplicantName
}

// TokenHashes returns every issued token hash on the document, used or not,
// so that a spent token can still be recognised as already used.
func (a *TenancyApplication) TokenHashes() []string {
	hashes := []string{}
	add := func(g *TokenGrant) {
		if g.Issued() {
			hashes = append(hashes, g.Hash)
		}
	}

	if s := a.Stage1.Summary; s != nil {
		add(s.Confirmation)
	}
	if a.Stage2 != nil {
		for _, p := range []Party{PartyApplicant, PartyCoTenant} {
			pp := a.Stage2.Party(p)
			if pp == nil {
				continue
			}
			if pp.BackgroundInfo != nil {
				add(pp.BackgroundInfo.Token)
			}
			if pp.EmployerVerification != nil {
				add(pp.EmployerVerification.Token)
			}
			if pp.PreviousLandlordReference != nil {
				add(pp.PreviousLandlordReference.Token)
			}
		}
	}
	return hashes
}
