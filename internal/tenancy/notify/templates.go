package notify

// Template names.
const (
	TemplateInterestRegistered    = "interest_registered"
	TemplateApplicationCancelled  = "application_cancelled"
	TemplateViewingScheduled      = "viewing_scheduled"
	TemplateViewingSummary        = "viewing_summary"
	TemplateViewingResponse       = "viewing_response"
	TemplateConsentRecorded       = "consent_recorded"
	TemplateCoTenantInvite        = "co_tenant_invite"
	TemplateCoTenantInfoSubmitted = "co_tenant_info_submitted"
	TemplateEmployerRequest       = "employer_verification_request"
	TemplateLandlordRefRequest    = "landlord_reference_request"
	TemplateReferenceSubmitted    = "reference_submitted"
	TemplateDecisionPass          = "decision_pass"
	TemplateDecisionFail          = "decision_fail"
)

// Template holds the subject and body of a message. SMS, when set, replaces
// Body for the sms channel.
type Template struct {
	Subject string
	Body    string
	SMS     string
}

func defaultTemplates() map[string]Template {
	return map[string]Template{
		TemplateInterestRegistered: {
			Subject: "New interest in {{propertyAddress}}",
			Body:    "{{applicantName}} has registered interest in {{propertyAddress}}. Arrange a viewing from your dashboard.",
		},
		TemplateApplicationCancelled: {
			Subject: "Application for {{propertyAddress}} cancelled",
			Body:    "The tenancy application for {{propertyAddress}} has been cancelled.",
		},
		TemplateViewingScheduled: {
			Subject: "Viewing arranged for {{propertyAddress}}",
			Body:    "Your viewing of {{propertyAddress}} is booked for {{date}} {{time}}. {{note}}",
		},
		TemplateViewingSummary: {
			Subject: "Your viewing of {{propertyAddress}}",
			Body:    "Please review the viewing summary and tell us whether you would like to proceed: {{link}}",
		},
		TemplateViewingResponse: {
			Subject: "Viewing response for {{propertyAddress}}",
			Body:    "{{applicantName}} has {{decision}} the viewing summary. {{comment}}",
		},
		TemplateConsentRecorded: {
			Subject: "Background check consent for {{propertyAddress}}",
			Body:    "{{applicantName}} has {{decision}} background checks.",
		},
		TemplateCoTenantInvite: {
			Subject: "You have been added as a co-tenant for {{propertyAddress}}",
			Body:    "{{applicantName}} has added you as a co-tenant. Please provide your reference contacts within 24 hours: {{link}}",
		},
		TemplateCoTenantInfoSubmitted: {
			Subject: "Co-tenant details received for {{propertyAddress}}",
			Body:    "{{coTenantName}} has submitted their reference contacts.",
		},
		TemplateEmployerRequest: {
			Subject: "Employment reference request for {{partyName}}",
			Body:    "{{partyName}} has applied to rent {{propertyAddress}} and named you as their employer. Please confirm their employment: {{link}}",
		},
		TemplateLandlordRefRequest: {
			Subject: "Landlord reference request for {{partyName}}",
			Body:    "{{partyName}} has applied to rent {{propertyAddress}} and named you as a previous landlord. Please provide a reference: {{link}}",
		},
		TemplateReferenceSubmitted: {
			Subject: "{{referenceType}} received for {{partyName}}",
			Body:    "A {{referenceType}} for {{partyName}} has been submitted for {{propertyAddress}}.",
		},
		TemplateDecisionPass: {
			Subject: "Your application for {{propertyAddress}} has been approved",
			Body:    "Good news {{applicantName}}, your application for {{propertyAddress}} has been approved. {{notes}}",
			SMS:     "Your application for {{propertyAddress}} has been approved. Check your email for next steps.",
		},
		TemplateDecisionFail: {
			Subject: "Your application for {{propertyAddress}}",
			Body:    "Dear {{applicantName}}, unfortunately your application for {{propertyAddress}} has not been successful. {{notes}}",
			SMS:     "An update on your application for {{propertyAddress}} has been sent to your email.",
		},
	}
}
