package addcotenant

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Consents struct {
	CreditCheck       *bool `json:"creditCheck"`
	EmployerReference *bool `json:"employerReference"`
	LandlordReference *bool `json:"landlordReference"`
	DataSharing       *bool `json:"dataSharing"`
}

type Input struct {
	models.Actor
	ApplicationID string   `json:"applicationId"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Tel           string   `json:"tel,omitempty"`
	Consents      Consents `json:"consents"`
}

type Output struct {
	engine.Summary
	InviteSent bool `json:"inviteSent"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "name", "email"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["applicant"]},
		"applicationId": {"type": "string"},
		"name": {"type": "string", "maxLength": 200},
		"email": {"type": "string"},
		"tel": {"type": "string"},
		"consents": {"type": "object"}
	}
}`
