package registerinterest

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	PropertyID     string `json:"propertyId"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
	ApplicantTel   string `json:"applicantTel,omitempty"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "propertyId", "applicantName", "applicantEmail"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["applicant"]},
		"propertyId": {"type": "string", "minLength": 1},
		"applicantName": {"type": "string", "minLength": 1, "maxLength": 200},
		"applicantEmail": {"type": "string", "minLength": 3},
		"applicantTel": {"type": "string"}
	}
}`
