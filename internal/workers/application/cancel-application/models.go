package cancelapplication

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string `json:"applicationId"`
	Reason        string `json:"reason,omitempty"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["applicant", "landlord"]},
		"applicationId": {"type": "string"},
		"reason": {"type": "string", "maxLength": 1000}
	}
}`
