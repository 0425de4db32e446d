package recordbackgroundconsent

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

// Consents are pointers so an omitted flag can be told apart from a refusal.
type Consents struct {
	CreditCheck       *bool `json:"creditCheck"`
	EmployerReference *bool `json:"employerReference"`
	LandlordReference *bool `json:"landlordReference"`
	DataSharing       *bool `json:"dataSharing"`
}

type Input struct {
	models.Actor
	ApplicationID string                   `json:"applicationId"`
	Consents      Consents                 `json:"consents"`
	Contacts      models.ReferenceContacts `json:"contacts"`
}

type Output struct {
	engine.Summary
	BackgroundStatus models.BackgroundStatus `json:"backgroundStatus"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "consents"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["applicant"]},
		"applicationId": {"type": "string"},
		"consents": {
			"type": "object",
			"properties": {
				"creditCheck": {"type": "boolean"},
				"employerReference": {"type": "boolean"},
				"landlordReference": {"type": "boolean"},
				"dataSharing": {"type": "boolean"}
			}
		},
		"contacts": {
			"type": "object",
			"properties": {
				"employerEmail": {"type": "string"},
				"previousLandlordEmail": {"type": "string"}
			}
		}
	}
}`
