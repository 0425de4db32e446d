package recordlandlorddecision

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string                `json:"applicationId"`
	Decision      models.DecisionStatus `json:"decision"`
	Notes         string                `json:"notes,omitempty"`
}

type Output struct {
	engine.Summary
	Decision models.DecisionStatus `json:"decision"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "decision"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"},
		"decision": {"type": "string"},
		"notes": {"type": "string", "maxLength": 5000}
	}
}`
