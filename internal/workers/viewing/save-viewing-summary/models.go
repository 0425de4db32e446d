package saveviewingsummary

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID   string                 `json:"applicationId"`
	Notes           string                 `json:"notes,omitempty"`
	Checklist       []models.ChecklistItem `json:"checklist,omitempty"`
	Photos          []string               `json:"photos,omitempty"` // object storage references
	ViewingOccurred bool                   `json:"viewingOccurred"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "viewingOccurred"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"},
		"notes": {"type": "string", "maxLength": 10000},
		"checklist": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["item"],
				"properties": {
					"item": {"type": "string", "minLength": 1},
					"done": {"type": "boolean"}
				}
			}
		},
		"photos": {"type": "array", "items": {"type": "string"}, "maxItems": 50},
		"viewingOccurred": {"type": "boolean"}
	}
}`
