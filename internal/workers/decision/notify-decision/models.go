package notifydecision

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string `json:"applicationId"`
}

// Output tells the process whether to continue to financials.
type Output struct {
	engine.Summary
	Approved bool `json:"approved"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"}
	}
}`
