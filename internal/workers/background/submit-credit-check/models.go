package submitcreditcheck

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string       `json:"applicationId"`
	Party         models.Party `json:"party,omitempty"` // defaults to the applicant
	ExperianScore *int         `json:"experianScore"`
	CCJCount      *int         `json:"ccjCount"`
}

type Output struct {
	engine.Summary
	Passed        bool   `json:"passed"`
	FailureReason string `json:"failureReason,omitempty"`
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "experianScore", "ccjCount"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"},
		"party": {"type": "string", "enum": ["applicant", "co_tenant"]},
		"experianScore": {"type": "integer"},
		"ccjCount": {"type": "integer"}
	}
}`
