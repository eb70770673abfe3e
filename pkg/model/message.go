package model

// OutboundMessage is one rendering job for the delivery collaborator. The
// instant path carries a single change; a digest carries the window's changes
// for one (recipient, notification) bucket in time order. The collaborator
// owns body rendering, localization, and transport.
type OutboundMessage struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	Notification string    `json:"notification"`
	Frequency    Frequency `json:"frequency"`
	Subject      string    `json:"subject"`
	Changes      []Change  `json:"changes"`
}
