package engine

import (
	"context"
	"fmt"
	"strings"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/validation"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/notify"
	"tenancy-workflow/internal/tenancy/token"
)

// ConsentInput carries the four consent flags as submitted. A nil flag was
// not answered.
type ConsentInput struct {
	CreditCheck       *bool
	EmployerReference *bool
	LandlordReference *bool
	DataSharing       *bool
}

func (c ConsentInput) missing() []errors.FieldError {
	var fields []errors.FieldError
	for _, f := range []struct {
		field string
		value *bool
	}{
		{"consents.creditCheck", c.CreditCheck},
		{"consents.employerReference", c.EmployerReference},
		{"consents.landlordReference", c.LandlordReference},
		{"consents.dataSharing", c.DataSharing},
	} {
		if f.value == nil {
			fields = append(fields, errors.FieldError{Field: f.field, Message: f.field + " is required", Code: "REQUIRED"})
		}
	}
	return fields
}

// consents assumes missing() is empty.
func (c ConsentInput) consents() models.Consents {
	return models.Consents{
		CreditCheck:       *c.CreditCheck,
		EmployerReference: *c.EmployerReference,
		LandlordReference: *c.LandlordReference,
		DataSharing:       *c.DataSharing,
	}
}

func checkContacts(contacts models.ReferenceContacts) []errors.FieldError {
	var fields []errors.FieldError
	if contacts.EmployerEmail != "" && !validation.ValidateEmail(contacts.EmployerEmail) {
		fields = append(fields, errors.FieldError{Field: "employerEmail", Message: "employerEmail must be a valid email address", Code: "INVALID_FORMAT"})
	}
	if contacts.PreviousLandlordEmail != "" && !validation.ValidateEmail(contacts.PreviousLandlordEmail) {
		fields = append(fields, errors.FieldError{Field: "previousLandlordEmail", Message: "previousLandlordEmail must be a valid email address", Code: "INVALID_FORMAT"})
	}
	return fields
}

func mergeContacts(dst *models.ReferenceContacts, src models.ReferenceContacts) {
	if v := strings.TrimSpace(src.EmployerEmail); v != "" {
		dst.EmployerEmail = v
	}
	if v := strings.TrimSpace(src.PreviousLandlordEmail); v != "" {
		dst.PreviousLandlordEmail = v
	}
}

// stage2 returns the background stage once it can still be changed.
func stage2(app *models.TenancyApplication) (*models.BackgroundStage, error) {
	s := app.Stage2
	if s == nil {
		return nil, errors.NewPreconditionFailedError("background checks have not started")
	}
	if err := backgroundOpen(app); err != nil {
		return nil, err
	}
	return s, nil
}

// backgroundOpen rejects changes once the landlord's decision has been sent.
// An application whose checks have not started yet is still open.
func backgroundOpen(app *models.TenancyApplication) error {
	s := app.Stage2
	if s != nil && (s.Status == models.BackgroundComplete || s.LandlordDecision.NotifiedAt != nil) {
		return errors.NewPreconditionFailedError("background checks are closed")
	}
	return nil
}

func partyProgress(app *models.TenancyApplication, party models.Party) (*models.PartyProgress, error) {
	pp := app.Party(party)
	if pp == nil {
		return nil, errors.NewPreconditionFailedError("application has no " + strings.ReplaceAll(string(party), "_", "-"))
	}
	return pp, nil
}

func partyOrDefault(p models.Party) (models.Party, error) {
	if p == "" {
		return models.PartyApplicant, nil
	}
	if !p.Valid() {
		return "", errors.NewFieldError("party", "party must be applicant or co_tenant")
	}
	return p, nil
}

type BackgroundConsentInput struct {
	ApplicationID string
	Consents      ConsentInput
	Contacts      models.ReferenceContacts
}

// RecordBackgroundConsent records the primary applicant's consents. All four
// granted moves stage 2 to agreed; any refusal moves it to declined.
func (e *Engine) RecordBackgroundConsent(ctx context.Context, actor models.Actor, in BackgroundConsentInput) (*Result, error) {
	ev := event{name: "record_background_consent", actor: actor, applicationID: in.ApplicationID, roles: applicantOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		fields := append(in.Consents.missing(), checkContacts(in.Contacts)...)
		if len(fields) > 0 {
			return errors.NewValidationError("Invalid background check consent", fields...)
		}
		if app.Stage1.Status != models.ViewingAgreed {
			return errors.NewPreconditionFailedError("a viewing must be agreed before consenting to background checks")
		}
		if app.Stage2 == nil {
			app.Stage2 = models.NewBackgroundStage()
		}
		s, err := stage2(app)
		if err != nil {
			return err
		}

		consents := in.Consents.consents()
		at := ch.now
		s.Consents = consents
		s.ConsentedAt = &at
		mergeContacts(&s.Contacts, in.Contacts)

		verb := "declined"
		s.Status = models.BackgroundDeclined
		if consents.All() {
			verb = "agreed to"
			s.Status = models.BackgroundAgreed
		}

		ch.description = "Applicant " + verb + " background checks"
		ch.set("consents", consents)
		ch.set("stage2Status", string(s.Status))
		ch.emailLandlord(notify.TemplateConsentRecorded, map[string]interface{}{"decision": verb})
		return nil
	})
}

type AddCoTenantInput struct {
	ApplicationID string
	Name          string
	Email         string
	Tel           string
	Consents      ConsentInput
}

// consentMessages are shown per missing co-tenant consent.
var consentMessages = []struct {
	field   string
	message string
	given   func(ConsentInput) bool
}{
	{"consents.creditCheck", "Co-tenant must consent to a credit check", func(c ConsentInput) bool { return isTrue(c.CreditCheck) }},
	{"consents.employerReference", "Co-tenant must consent to an employer reference", func(c ConsentInput) bool { return isTrue(c.EmployerReference) }},
	{"consents.landlordReference", "Co-tenant must consent to a previous landlord reference", func(c ConsentInput) bool { return isTrue(c.LandlordReference) }},
	{"consents.dataSharing", "Co-tenant must consent to data sharing", func(c ConsentInput) bool { return isTrue(c.DataSharing) }},
}

func isTrue(b *bool) bool { return b != nil && *b }

// AddCoTenant adds the single optional co-tenant and sends them a 24 hour
// link to submit their reference contacts.
func (e *Engine) AddCoTenant(ctx context.Context, actor models.Actor, in AddCoTenantInput) (*Result, error) {
	ev := event{name: "add_co_tenant", actor: actor, applicationID: in.ApplicationID, roles: applicantOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		if app.CoTenant != nil {
			return errors.NewPreconditionFailedError("a co-tenant has already been added")
		}
		if app.Stage1.Status != models.ViewingAgreed {
			return errors.NewPreconditionFailedError("a viewing must be agreed before adding a co-tenant")
		}
		if err := backgroundOpen(app); err != nil {
			return err
		}

		var fields []errors.FieldError
		if strings.TrimSpace(in.Name) == "" {
			fields = append(fields, errors.FieldError{Field: "name", Message: "Co-tenant name is required", Code: "REQUIRED"})
		}
		switch {
		case !validation.ValidateEmail(strings.TrimSpace(in.Email)):
			fields = append(fields, errors.FieldError{Field: "email", Message: "Co-tenant email must be a valid email address", Code: "INVALID_FORMAT"})
		case validation.SameEmail(in.Email, app.ApplicantEmail):
			fields = append(fields, errors.FieldError{Field: "email", Message: "Co-tenant email must differ from the applicant's", Code: "DUPLICATE_EMAIL"})
		}
		if in.Tel != "" && !validation.ValidatePhone(in.Tel) {
			fields = append(fields, errors.FieldError{Field: "tel", Message: "Co-tenant phone must be a valid phone number", Code: "INVALID_FORMAT"})
		}
		for _, c := range consentMessages {
			if !c.given(in.Consents) {
				fields = append(fields, errors.FieldError{Field: c.field, Message: c.message, Code: "CONSENT_REQUIRED"})
			}
		}
		if len(fields) > 0 {
			return errors.NewValidationError("Co-tenant cannot be added", fields...)
		}

		plain, grant, err := e.tokens.Issue(token.KindBackgroundInfo)
		if err != nil {
			return err
		}

		if app.Stage2 == nil {
			app.Stage2 = models.NewBackgroundStage()
		}
		at := ch.now
		app.CoTenant = &models.CoTenant{
			Name:    strings.TrimSpace(in.Name),
			Email:   strings.TrimSpace(in.Email),
			Tel:     strings.TrimSpace(in.Tel),
			AddedAt: at,
		}
		app.Stage2.CoTenant = &models.PartyProgress{
			Consents:       in.Consents.consents(),
			ConsentedAt:    &at,
			BackgroundInfo: &models.BackgroundInfoRequest{Token: grant},
		}

		ch.token = plain
		ch.description = "Co-tenant added"
		ch.set("coTenantEmail", app.CoTenant.Email)
		ch.set("tokenExpiresAt", grant.ExpiresAt)
		ch.email(notify.TemplateCoTenantInvite, app.CoTenant.Email, map[string]interface{}{
			"coTenantName": app.CoTenant.Name,
			"link":         e.link("/co-tenant/background", plain),
		})
		return nil
	})
}

type CoTenantInfoInput struct {
	Token    string
	Tel      string
	Contacts models.ReferenceContacts
}

func (in CoTenantInfoInput) validate() error {
	fields := checkContacts(in.Contacts)
	if in.Contacts.EmployerEmail == "" && in.Contacts.PreviousLandlordEmail == "" {
		fields = append(fields, errors.FieldError{Field: "employerEmail", Message: "Provide an employer or previous landlord email", Code: "REQUIRED"})
	}
	if in.Tel != "" && !validation.ValidatePhone(in.Tel) {
		fields = append(fields, errors.FieldError{Field: "tel", Message: "tel must be a valid phone number", Code: "INVALID_FORMAT"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("Invalid co-tenant details", fields...)
	}
	return nil
}

// SubmitCoTenantBackgroundInfo records the co-tenant's reference contacts
// and spends their token.
func (e *Engine) SubmitCoTenantBackgroundInfo(ctx context.Context, in CoTenantInfoInput) (*Result, error) {
	return e.applyWithToken(ctx, "submit_co_tenant_background_info", token.KindBackgroundInfo, in.Token, in.validate,
		func(app *models.TenancyApplication, match *token.Match, ch *change) error {
			if err := backgroundOpen(app); err != nil {
				return err
			}
			pp, err := partyProgress(app, models.PartyCoTenant)
			if err != nil {
				return err
			}

			match.Grant.MarkUsed(ch.now)
			at := ch.now
			pp.BackgroundInfo.SubmittedAt = &at
			mergeContacts(&pp.Contacts, in.Contacts)
			if tel := strings.TrimSpace(in.Tel); tel != "" {
				app.CoTenant.Tel = tel
			}

			ch.description = "Co-tenant submitted background information"
			ch.set("party", string(models.PartyCoTenant))
			ch.emailLandlord(notify.TemplateCoTenantInfoSubmitted, nil)
			return nil
		})
}

type CreditCheckInput struct {
	ApplicationID string
	Party         models.Party
	ExperianScore *int
	CCJCount      *int
}

func (in CreditCheckInput) validate() error {
	var fields []errors.FieldError
	switch {
	case in.ExperianScore == nil:
		fields = append(fields, errors.FieldError{Field: "experianScore", Message: "experianScore is required", Code: "REQUIRED"})
	case *in.ExperianScore < 0 || *in.ExperianScore > 999:
		fields = append(fields, errors.FieldError{Field: "experianScore", Message: "experianScore must be between 0 and 999", Code: "OUT_OF_RANGE"})
	}
	switch {
	case in.CCJCount == nil:
		fields = append(fields, errors.FieldError{Field: "ccjCount", Message: "ccjCount is required", Code: "REQUIRED"})
	case *in.CCJCount < 0:
		fields = append(fields, errors.FieldError{Field: "ccjCount", Message: "ccjCount cannot be negative", Code: "OUT_OF_RANGE"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("Invalid credit check", fields...)
	}
	return nil
}

// SubmitCreditCheck evaluates one party's credit result against the
// landlord's criteria. Any failing party rejects the application; it
// recovers only when every party present passes and the rejection came from
// a credit check.
func (e *Engine) SubmitCreditCheck(ctx context.Context, actor models.Actor, in CreditCheckInput) (*Result, error) {
	ev := event{name: "submit_credit_check", actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		party, err := partyOrDefault(in.Party)
		if err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		if _, err := stage2(app); err != nil {
			return err
		}
		pp, err := partyProgress(app, party)
		if err != nil {
			return err
		}
		if !pp.Consents.CreditCheck {
			return errors.NewPreconditionFailedError(string(party) + " has not consented to a credit check")
		}

		criteria, err := e.criteria.GetCriteria(ctx, app.LandlordID)
		if err != nil {
			return err
		}

		score, ccjs := *in.ExperianScore, *in.CCJCount
		var reasons []string
		if score < criteria.MinExperianScore {
			reasons = append(reasons, fmt.Sprintf("Experian score below %d", criteria.MinExperianScore))
		}
		if ccjs > criteria.MaxCCJs {
			reasons = append(reasons, fmt.Sprintf("CCJ count above %d", criteria.MaxCCJs))
		}
		passed := len(reasons) == 0

		pp.CreditCheck = &models.CreditCheck{
			Status:        models.CreditCheckComplete,
			Score:         score,
			CCJCount:      ccjs,
			Passed:        passed,
			FailureReason: strings.Join(reasons, "; "),
			CheckedAt:     ch.now,
		}

		switch {
		case !passed && app.Status != models.StatusRefused:
			app.Status = models.StatusRejected
			app.StatusReason = models.ReasonCreditCheck
		case passed && app.Status == models.StatusRejected && app.StatusReason == models.ReasonCreditCheck && allCreditChecksPass(app):
			app.Status = models.StatusInProgress
			app.StatusReason = ""
		}

		outcome := "passed"
		if !passed {
			outcome = "failed"
		}
		ch.description = fmt.Sprintf("Credit check for %s %s", party, outcome)
		ch.set("party", string(party))
		ch.set("experianScore", score)
		ch.set("ccjCount", ccjs)
		ch.set("passed", passed)
		ch.set("minExperianScore", criteria.MinExperianScore)
		ch.set("maxCcjs", criteria.MaxCCJs)
		ch.set("defaultCriteria", criteria.Default)
		if !passed {
			ch.set("failureReason", pp.CreditCheck.FailureReason)
		}
		return nil
	})
}

// allCreditChecksPass requires a passing check for every party present.
func allCreditChecksPass(app *models.TenancyApplication) bool {
	for _, party := range app.Parties() {
		pp := app.Party(party)
		if pp == nil || pp.CreditCheck == nil || !pp.CreditCheck.Passed {
			return false
		}
	}
	return true
}

func anyCreditCheckFailed(app *models.TenancyApplication) bool {
	for _, party := range app.Parties() {
		if pp := app.Party(party); pp != nil && pp.CreditCheck != nil && !pp.CreditCheck.Passed {
			return true
		}
	}
	return false
}

type ReferenceRequestInput struct {
	ApplicationID string
	Party         models.Party
}

// referenceFlow describes one kind of token-gated reference.
type referenceFlow struct {
	event    string
	kind     token.Kind
	field    string
	label    string
	path     string
	template string
	consent  func(models.Consents) bool
	contact  func(models.ReferenceContacts) string
	request  func(*models.PartyProgress) *models.VerificationRequest
	reset    func(*models.PartyProgress, models.VerificationRequest)
}

var (
	employerFlow = referenceFlow{
		event:    "request_employer_verification",
		kind:     token.KindEmployerVerification,
		field:    "employerEmail",
		label:    "employer verification",
		path:     "/references/employer",
		template: notify.TemplateEmployerRequest,
		consent:  func(c models.Consents) bool { return c.EmployerReference },
		contact:  func(c models.ReferenceContacts) string { return c.EmployerEmail },
		request: func(pp *models.PartyProgress) *models.VerificationRequest {
			if pp.EmployerVerification == nil {
				return nil
			}
			return &pp.EmployerVerification.VerificationRequest
		},
		reset: func(pp *models.PartyProgress, req models.VerificationRequest) {
			pp.EmployerVerification = &models.EmployerVerification{VerificationRequest: req}
		},
	}
	landlordFlow = referenceFlow{
		event:    "request_landlord_reference",
		kind:     token.KindLandlordReference,
		field:    "previousLandlordEmail",
		label:    "landlord reference",
		path:     "/references/landlord",
		template: notify.TemplateLandlordRefRequest,
		consent:  func(c models.Consents) bool { return c.LandlordReference },
		contact:  func(c models.ReferenceContacts) string { return c.PreviousLandlordEmail },
		request: func(pp *models.PartyProgress) *models.VerificationRequest {
			if pp.PreviousLandlordReference == nil {
				return nil
			}
			return &pp.PreviousLandlordReference.VerificationRequest
		},
		reset: func(pp *models.PartyProgress, req models.VerificationRequest) {
			pp.PreviousLandlordReference = &models.LandlordReference{VerificationRequest: req}
		},
	}
)

// RequestEmployerVerification emails the party's employer a 7 day link to
// confirm their employment.
func (e *Engine) RequestEmployerVerification(ctx context.Context, actor models.Actor, in ReferenceRequestInput) (*Result, error) {
	return e.requestReference(ctx, actor, in, employerFlow)
}

// RequestLandlordReference emails the party's previous landlord a 7 day link
// to give a reference.
func (e *Engine) RequestLandlordReference(ctx context.Context, actor models.Actor, in ReferenceRequestInput) (*Result, error) {
	return e.requestReference(ctx, actor, in, landlordFlow)
}

func (e *Engine) requestReference(ctx context.Context, actor models.Actor, in ReferenceRequestInput, flow referenceFlow) (*Result, error) {
	ev := event{name: flow.event, actor: actor, applicationID: in.ApplicationID, roles: landlordOnly}

	return e.apply(ctx, ev, func(app *models.TenancyApplication, ch *change) error {
		party, err := partyOrDefault(in.Party)
		if err != nil {
			return err
		}
		if _, err := stage2(app); err != nil {
			return err
		}
		pp, err := partyProgress(app, party)
		if err != nil {
			return err
		}
		if !flow.consent(pp.Consents) {
			return errors.NewPreconditionFailedError(fmt.Sprintf("%s has not consented to %s", party, flow.label))
		}
		if req := flow.request(pp); req != nil && req.Status == models.VerificationCompleted {
			return errors.NewPreconditionFailedError(flow.label + " has already been completed")
		}

		contact, err := e.referenceContact(ctx, app, party, pp, flow)
		if err != nil {
			return err
		}

		plain, grant, err := e.tokens.Issue(flow.kind)
		if err != nil {
			return err
		}
		flow.reset(pp, models.VerificationRequest{
			Status:       models.VerificationRequested,
			ContactEmail: contact,
			RequestedAt:  ch.now,
			Token:        grant,
		})

		ch.token = plain
		ch.description = fmt.Sprintf("Requested %s for %s", flow.label, party)
		ch.set("party", string(party))
		ch.set("contactEmail", contact)
		ch.set("tokenExpiresAt", grant.ExpiresAt)
		ch.email(flow.template, contact, map[string]interface{}{
			"partyName": app.PartyName(party),
			"link":      e.link(flow.path, plain),
		})
		return nil
	})
}

// referenceContact prefers the contact on the application and falls back to
// the applicant's profile. Co-tenants have no profile.
func (e *Engine) referenceContact(ctx context.Context, app *models.TenancyApplication, party models.Party, pp *models.PartyProgress, flow referenceFlow) (string, error) {
	if c := flow.contact(pp.Contacts); c != "" {
		return c, nil
	}
	if party == models.PartyApplicant {
		profile, err := e.directory.ReferenceContacts(ctx, app.ApplicantID)
		if err != nil {
			return "", err
		}
		if c := strings.TrimSpace(flow.contact(profile)); c != "" {
			return c, nil
		}
	}
	return "", errors.NewFieldError(flow.field, fmt.Sprintf("No %s contact email is known for the %s", flow.label, strings.ReplaceAll(string(party), "_", "-")))
}

type EmployerVerificationInput struct {
	Token    string
	Response models.EmployerResponse
	// Confirmed is required; Response.Confirmed is taken from it.
	Confirmed *bool
}

func (in EmployerVerificationInput) validate() error {
	var fields []errors.FieldError
	if strings.TrimSpace(in.Response.RefereeName) == "" {
		fields = append(fields, errors.FieldError{Field: "refereeName", Message: "refereeName is required", Code: "REQUIRED"})
	}
	if strings.TrimSpace(in.Response.CompanyName) == "" {
		fields = append(fields, errors.FieldError{Field: "companyName", Message: "companyName is required", Code: "REQUIRED"})
	}
	if in.Confirmed == nil {
		fields = append(fields, errors.FieldError{Field: "confirmed", Message: "confirmed is required", Code: "REQUIRED"})
	}
	if in.Response.StartDate != "" && !validation.ValidateDate(in.Response.StartDate) {
		fields = append(fields, errors.FieldError{Field: "startDate", Message: "startDate must be in YYYY-MM-DD format", Code: "INVALID_FORMAT"})
	}
	if in.Response.AnnualSalary < 0 {
		fields = append(fields, errors.FieldError{Field: "annualSalary", Message: "annualSalary cannot be negative", Code: "OUT_OF_RANGE"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("Invalid employer verification", fields...)
	}
	return nil
}

// SubmitEmployerVerification records the employer's response and spends the
// token.
func (e *Engine) SubmitEmployerVerification(ctx context.Context, in EmployerVerificationInput) (*Result, error) {
	return e.applyWithToken(ctx, "submit_employer_verification", token.KindEmployerVerification, in.Token, in.validate,
		func(app *models.TenancyApplication, match *token.Match, ch *change) error {
			if err := backgroundOpen(app); err != nil {
				return err
			}
			ver := app.Party(match.Party).EmployerVerification
			resp := in.Response
			resp.Confirmed = *in.Confirmed

			match.Grant.MarkUsed(ch.now)
			at := ch.now
			ver.Response = &resp
			ver.Status = models.VerificationCompleted
			ver.CompletedAt = &at

			ch.description = fmt.Sprintf("Employer verification submitted for %s", match.Party)
			ch.set("party", string(match.Party))
			ch.set("confirmed", resp.Confirmed)
			ch.emailLandlord(notify.TemplateReferenceSubmitted, map[string]interface{}{
				"referenceType": "Employer verification",
				"partyName":     app.PartyName(match.Party),
			})
			return nil
		})
}

type LandlordReferenceInput struct {
	Token          string
	Response       models.LandlordReferenceResponse
	RentPaidOnTime *bool
	WouldRentAgain *bool
}

func (in LandlordReferenceInput) validate() error {
	var fields []errors.FieldError
	if strings.TrimSpace(in.Response.RefereeName) == "" {
		fields = append(fields, errors.FieldError{Field: "refereeName", Message: "refereeName is required", Code: "REQUIRED"})
	}
	if in.RentPaidOnTime == nil {
		fields = append(fields, errors.FieldError{Field: "rentPaidOnTime", Message: "rentPaidOnTime is required", Code: "REQUIRED"})
	}
	if in.WouldRentAgain == nil {
		fields = append(fields, errors.FieldError{Field: "wouldRentAgain", Message: "wouldRentAgain is required", Code: "REQUIRED"})
	}
	for _, d := range []struct{ field, value string }{
		{"tenancyStartDate", in.Response.TenancyStartDate},
		{"tenancyEndDate", in.Response.TenancyEndDate},
	} {
		if d.value != "" && !validation.ValidateDate(d.value) {
			fields = append(fields, errors.FieldError{Field: d.field, Message: d.field + " must be in YYYY-MM-DD format", Code: "INVALID_FORMAT"})
		}
	}
	if in.Response.MonthlyRent < 0 {
		fields = append(fields, errors.FieldError{Field: "monthlyRent", Message: "monthlyRent cannot be negative", Code: "OUT_OF_RANGE"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("Invalid landlord reference", fields...)
	}
	return nil
}

// SubmitLandlordReference records the previous landlord's reference and
// spends the token.
func (e *Engine) SubmitLandlordReference(ctx context.Context, in LandlordReferenceInput) (*Result, error) {
	return e.applyWithToken(ctx, "submit_landlord_reference", token.KindLandlordReference, in.Token, in.validate,
		func(app *models.TenancyApplication, match *token.Match, ch *change) error {
			if err := backgroundOpen(app); err != nil {
				return err
			}
			ref := app.Party(match.Party).PreviousLandlordReference
			resp := in.Response
			resp.RentPaidOnTime = *in.RentPaidOnTime
			resp.WouldRentAgain = *in.WouldRentAgain

			match.Grant.MarkUsed(ch.now)
			at := ch.now
			ref.Response = &resp
			ref.Status = models.VerificationCompleted
			ref.CompletedAt = &at

			ch.description = fmt.Sprintf("Landlord reference submitted for %s", match.Party)
			ch.set("party", string(match.Party))
			ch.set("rentPaidOnTime", resp.RentPaidOnTime)
			ch.set("wouldRentAgain", resp.WouldRentAgain)
			ch.emailLandlord(notify.TemplateReferenceSubmitted, map[string]interface{}{
				"referenceType": "Landlord reference",
				"partyName":     app.PartyName(match.Party),
			})
			return nil
		})
}
