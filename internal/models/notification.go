package models

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	ID       string  `json:"id"`
	To       string  `json:"to"`
	Subject  string  `json:"subject,omitempty"`
	Body     string  `json:"body"`
	Channel  Channel `json:"channel"`
	Template string  `json:"template,omitempty"`
}

// Property is the human-readable view of a listing used in letters.
type Property struct {
	ID         string `json:"id"`
	LandlordID string `json:"landlordId"`
	Address    string `json:"address"`
}

// Contact is a user's display name and reachable channels.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tel   string `json:"tel,omitempty"`
}
