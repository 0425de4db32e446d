package scheduleviewing

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

type Input struct {
	models.Actor
	ApplicationID string `json:"applicationId"`
	Date          string `json:"date"` // YYYY-MM-DD, landlord's timezone
	Time          string `json:"time"` // HH:MM
	Note          string `json:"note,omitempty"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["actorId", "actorRole", "applicationId", "date", "time"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1},
		"actorRole": {"type": "string", "enum": ["landlord"]},
		"applicationId": {"type": "string"},
		"date": {"type": "string"},
		"time": {"type": "string"},
		"note": {"type": "string", "maxLength": 2000}
	}
}`
