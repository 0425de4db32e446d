package submitlandlordreference

import (
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

// Input is posted by the previous landlord from the emailed link. The two
// yes/no answers are required and kept outside Response so a missing answer
// is not read as "no".
type Input struct {
	Token          string                           `json:"token"`
	Response       models.LandlordReferenceResponse `json:"response"`
	RentPaidOnTime *bool                            `json:"rentPaidOnTime"`
	WouldRentAgain *bool                            `json:"wouldRentAgain"`
}

type Output struct {
	engine.Summary
}

const InputSchema = `{
	"type": "object",
	"required": ["token", "response", "rentPaidOnTime", "wouldRentAgain"],
	"properties": {
		"token": {"type": "string"},
		"rentPaidOnTime": {"type": "boolean"},
		"wouldRentAgain": {"type": "boolean"},
		"response": {
			"type": "object",
			"required": ["refereeName"],
			"properties": {
				"refereeName": {"type": "string"},
				"tenancyStartDate": {"type": "string"},
				"tenancyEndDate": {"type": "string"},
				"monthlyRent": {"type": "number", "minimum": 0},
				"propertyCondition": {"type": "string"},
				"comments": {"type": "string", "maxLength": 5000}
			}
		}
	}
}`
