package models

import "time"

// Criteria are a landlord's credit-check thresholds.
type Criteria struct {
	LandlordID       string    `json:"landlordId" dynamodbav:"landlordId"`
	MinExperianScore int       `json:"minExperianScore" dynamodbav:"minExperianScore"`
	MaxCCJs          int       `json:"maxCcjs" dynamodbav:"maxCcjs"`
	UpdatedAt        time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
	// Default is set when the landlord has not configured criteria.
	Default bool `json:"default" dynamodbav:"-"`
}
