package requestlandlordreference

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string       `json:"applicationId"`
	Party         models.Party `json:"party,omitempty"`
}

type Output struct {
	engine.Summary
	RequestSent bool `json:"requestSent"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"},
		"party": {"type": "string", "enum": ["applicant", "co_tenant"]}
	}
}`
