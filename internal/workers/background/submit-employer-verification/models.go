package submitemployerverification

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

// Input is posted by the employer from the emailed link.
type Input struct {
	Token     string                  `json:"token"`
	Response  models.EmployerResponse `json:"response"`
	Confirmed *bool                   `json:"confirmed"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["token", "response", "confirmed"],
	"properties": {
		"token": {"type": "string"},
		"confirmed": {"type": "boolean"},
		"response": {
			"type": "object",
			"required": ["refereeName", "companyName"],
			"properties": {
				"refereeName": {"type": "string"},
				"companyName": {"type": "string"},
				"jobTitle": {"type": "string"},
				"employmentType": {"type": "string"},
				"startDate": {"type": "string"},
				"annualSalary": {"type": "number", "minimum": 0},
				"comments": {"type": "string", "maxLength": 5000}
			}
		}
	}
}`
