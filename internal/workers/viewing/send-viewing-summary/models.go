package sendviewingsummary

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string `json:"applicationId"`
}

// Output never carries the issued token. It only travels in the email link.
type Output struct {
	engine.Summary
	LinkSent bool `json:"linkSent"`
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
