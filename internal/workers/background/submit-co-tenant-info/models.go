package submitcotenantinfo

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	Token    string                   `json:"token"`
	Tel      string                   `json:"tel,omitempty"`
	Contacts models.ReferenceContacts `json:"contacts"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["token", "contacts"],
	"properties": {
		"token": {"type": "string"},
		"tel": {"type": "string"},
		"contacts": {
			"type": "object",
			"properties": {
				"employerEmail": {"type": "string"},
				"previousLandlordEmail": {"type": "string"}
			}
		}
	}
}`
