package projectstatus

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string `json:"applicationId"`
}

// Output is read-only; it never reports delivery failures.
type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["applicant", "landlord"]},
		"applicationId": {"type": "string"}
	}
}`
