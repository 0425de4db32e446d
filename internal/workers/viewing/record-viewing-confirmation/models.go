package recordviewingconfirmation

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

// Input comes from the applicant's link; there is no authenticated actor.
type Input struct {
	Token    string                 `json:"token"`
	Decision models.ViewingDecision `json:"decision"`
	Comment  string                 `json:"comment,omitempty"`
}

type Output struct {
	engine.Summary
	Decision models.ViewingDecision `json:"decision"`
}

const InputSchema = `{
	"type": "object",
	"required": ["token", "decision"],
	"properties": {
		"token": {"type": "string"},
		"decision": {"type": "string"},
		"comment": {"type": "string", "maxLength": 2000}
	}
}`
