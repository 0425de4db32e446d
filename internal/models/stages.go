package models

import "time"

// TokenGrant is the stored half of a single-use bearer token. Only the
// SHA-256 hash of the token is persisted.
type TokenGrant struct {
	Hash      string     `json:"hash"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

func (g *TokenGrant) Issued() bool {
	return g != nil && g.Hash != ""
}

// MarkUsed spends the grant. It must be persisted in the same write as the
// effect the token authorised.
func (g *TokenGrant) MarkUsed(at time.Time) {
	g.Used = true
	g.UsedAt = &at
}

// ---------- Stage 1: viewing ----------

type ViewingStatus string

const (
	ViewingPending ViewingStatus = "pending"
	ViewingAgreed  ViewingStatus = "agreed"
)

type ViewingStage struct {
	Status  ViewingStatus   `json:"status"`
	Details *ViewingDetails `json:"viewingDetails,omitempty"`
	Summary *ViewingSummary `json:"viewingSummary,omitempty"`
}

type ViewingDetails struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time,omitempty"`
	Note string `json:"note,omitempty"`
}

type ChecklistItem struct {
	Item string `json:"item"`
	Done bool   `json:"done"`
}

type ViewingSummary struct {
	Notes             string             `json:"notes,omitempty"`
	Checklist         []ChecklistItem    `json:"checklist,omitempty"`
	Photos            []string           `json:"photos,omitempty"`
	ViewingOccurred   bool               `json:"viewingOccurred"`
	ViewingOccurredAt *time.Time         `json:"viewingOccurredAt,omitempty"`
	SavedAt           *time.Time         `json:"savedAt,omitempty"`
	SentToApplicantAt *time.Time         `json:"sentToApplicantAt,omitempty"`
	Confirmation      *TokenGrant        `json:"confirmationToken,omitempty"`
	ApplicantResponse *ApplicantResponse `json:"applicantResponse,omitempty"`
	EditingUnlockedAt *time.Time         `json:"editingUnlockedAt,omitempty"`
}

// Locked reports whether the summary was sent and not reopened since.
func (s *ViewingSummary) Locked() bool {
	if s == nil || s.SentToApplicantAt == nil {
		return false
	}
	return s.EditingUnlockedAt == nil || !s.EditingUnlockedAt.After(*s.SentToApplicantAt)
}

func (s *ViewingSummary) Response() *ApplicantResponse {
	if s == nil {
		return nil
	}
	return s.ApplicantResponse
}

type ViewingDecision string

const (
	DecisionConfirmed ViewingDecision = "confirmed"
	DecisionDeclined  ViewingDecision = "declined"
	DecisionQuery     ViewingDecision = "query"
)

// Terminal reports whether the decision spends the confirmation token.
func (d ViewingDecision) Terminal() bool {
	return d == DecisionConfirmed || d == DecisionDeclined
}

type ApplicantResponse struct {
	Status      ViewingDecision `json:"status"`
	RespondedAt time.Time       `json:"respondedAt"`
	Comment     string          `json:"comment,omitempty"`
}

// ---------- Stage 2: background checks ----------

type BackgroundStatus string

const (
	BackgroundPending  BackgroundStatus = "pending"
	BackgroundAgreed   BackgroundStatus = "agreed"
	BackgroundDeclined BackgroundStatus = "declined"
	BackgroundComplete BackgroundStatus = "complete"
)

type Party string

const (
	PartyApplicant Party = "applicant"
	PartyCoTenant  Party = "co_tenant"
)

func (p Party) Valid() bool {
	return p == PartyApplicant || p == PartyCoTenant
}

// BackgroundStage holds the primary applicant's progress inline and the
// co-tenant's as a nested instance of the same type.
type BackgroundStage struct {
	Status BackgroundStatus `json:"status"`
	PartyProgress
	LandlordDecision LandlordDecision `json:"landlordDecision"`
	CoTenant         *PartyProgress   `json:"coTenant,omitempty"`
}

func (b *BackgroundStage) Party(p Party) *PartyProgress {
	switch p {
	case PartyApplicant:
		return &b.PartyProgress
	case PartyCoTenant:
		return b.CoTenant
	}
	return nil
}

type Consents struct {
	CreditCheck       bool `json:"creditCheck"`
	EmployerReference bool `json:"employerReference"`
	LandlordReference bool `json:"landlordReference"`
	DataSharing       bool `json:"dataSharing"`
}

func (c Consents) All() bool {
	return c.CreditCheck && c.EmployerReference && c.LandlordReference && c.DataSharing
}

// ReferenceContacts are where reference requests for a party are sent.
type ReferenceContacts struct {
	EmployerEmail         string `json:"employerEmail,omitempty"`
	PreviousLandlordEmail string `json:"previousLandlordEmail,omitempty"`
}

type PartyProgress struct {
	Consents                  Consents               `json:"consents"`
	ConsentedAt               *time.Time             `json:"consentedAt,omitempty"`
	Contacts                  ReferenceContacts      `json:"contacts"`
	CreditCheck               *CreditCheck           `json:"creditCheck,omitempty"`
	EmployerVerification      *EmployerVerification  `json:"employerVerification,omitempty"`
	PreviousLandlordReference *LandlordReference     `json:"previousLandlordReference,omitempty"`
	BackgroundInfo            *BackgroundInfoRequest `json:"backgroundInfo,omitempty"`
}

type CreditCheckStatus string

const (
	CreditCheckComplete CreditCheckStatus = "complete"
)

type CreditCheck struct {
	Status        CreditCheckStatus `json:"status"`
	Score         int               `json:"score"`
	CCJCount      int               `json:"ccjCount"`
	Passed        bool              `json:"passed"`
	FailureReason string            `json:"failureReason,omitempty"`
	CheckedAt     time.Time         `json:"checkedAt"`
}

type VerificationStatus string

const (
	VerificationRequested VerificationStatus = "requested"
	VerificationCompleted VerificationStatus = "completed"
)

// VerificationRequest is the shared shape of a token-gated reference request.
type VerificationRequest struct {
	Status       VerificationStatus `json:"status"`
	ContactEmail string             `json:"contactEmail"`
	RequestedAt  time.Time          `json:"requestedAt"`
	Token        *TokenGrant        `json:"token,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
}

type EmployerVerification struct {
	VerificationRequest
	Response *EmployerResponse `json:"response,omitempty"`
}

type EmployerResponse struct {
	RefereeName    string  `json:"refereeName"`
	CompanyName    string  `json:"companyName"`
	JobTitle       string  `json:"jobTitle,omitempty"`
	EmploymentType string  `json:"employmentType,omitempty"`
	StartDate      string  `json:"startDate,omitempty"`
	AnnualSalary   float64 `json:"annualSalary,omitempty"`
	Confirmed      bool    `json:"confirmed"`
	Comments       string  `json:"comments,omitempty"`
}

type LandlordReference struct {
	VerificationRequest
	Response *LandlordReferenceResponse `json:"response,omitempty"`
}

type LandlordReferenceResponse struct {
	RefereeName       string  `json:"refereeName"`
	TenancyStartDate  string  `json:"tenancyStartDate,omitempty"`
	TenancyEndDate    string  `json:"tenancyEndDate,omitempty"`
	MonthlyRent       float64 `json:"monthlyRent,omitempty"`
	RentPaidOnTime    bool    `json:"rentPaidOnTime"`
	PropertyCondition string  `json:"propertyCondition,omitempty"`
	WouldRentAgain    bool    `json:"wouldRentAgain"`
	Comments          string  `json:"comments,omitempty"`
}

// BackgroundInfoRequest tracks the co-tenant's own contact submission.
type BackgroundInfoRequest struct {
	Token       *TokenGrant `json:"token,omitempty"`
	SubmittedAt *time.Time  `json:"submittedAt,omitempty"`
}

type DecisionStatus string

const (
	DecisionPending DecisionStatus = "pending"
	DecisionPass    DecisionStatus = "pass"
	DecisionFail    DecisionStatus = "fail"
)

type LandlordDecision struct {
	Status     DecisionStatus `json:"status"`
	Notes      string         `json:"notes,omitempty"`
	DecidedAt  *time.Time     `json:"decidedAt,omitempty"`
	NotifiedAt *time.Time     `json:"notifiedAt,omitempty"`
}

// NewBackgroundStage returns the default pending sub-state.
func NewBackgroundStage() *BackgroundStage {
	return &BackgroundStage{
		Status:           BackgroundPending,
		LandlordDecision: LandlordDecision{Status: DecisionPending},
	}
}

// ---------- Stages 3-6 ----------

type FinancialStatus string

const (
	FinancialPending   FinancialStatus = "pending"
	FinancialRequested FinancialStatus = "requested"
	FinancialPaid      FinancialStatus = "paid"
)

type FinancialStage struct {
	Status    FinancialStatus `json:"status"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type AgreementStatus string

const (
	AgreementPending AgreementStatus = "pending"
	AgreementSent    AgreementStatus = "sent"
	AgreementSigned  AgreementStatus = "signed"
)

type AgreementStage struct {
	Status    AgreementStatus `json:"status"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type MoveInStatus string

const (
	MoveInPending   MoveInStatus = "pending"
	MoveInScheduled MoveInStatus = "scheduled"
	MoveInCompleted MoveInStatus = "completed"
)

type MoveInStage struct {
	Status    MoveInStatus `json:"status"`
	Date      string       `json:"date,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type CompletionStatus string

const (
	CompletionPending  CompletionStatus = "pending"
	CompletionComplete CompletionStatus = "complete"
)

type CompletionStage struct {
	Status    CompletionStatus `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
