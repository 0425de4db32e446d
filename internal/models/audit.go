package models

import "time"

type Role string

const (
	RoleLandlord    Role = "landlord"
	RoleApplicant   Role = "applicant"
	RoleTokenHolder Role = "token_holder"
	RoleSystem      Role = "system"
)

// Actor identifies who triggered a domain event. Token holders are anonymous;
// their ID is the kind of token they presented.
type Actor struct {
	ID   string `json:"actorId"`
	Role Role   `json:"actorRole"`
}

// AuditEvent is written once per mutating event and never changed.
type AuditEvent struct {
	ID          string                 `json:"id"`
	ActorID     string                 `json:"actorId"`
	ActorRole   Role                   `json:"actorRole"`
	Action      string                 `json:"action"`
	TargetID    string                 `json:"targetId"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}

// AuditFilter narrows an audit log query. Zero fields are ignored.
type AuditFilter struct {
	ActorID  string
	TargetID string
	Action   string
	From     time.Time
	To       time.Time
	Limit    int
}
