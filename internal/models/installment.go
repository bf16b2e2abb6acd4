package models

import "time"

// Installment status values. Transitions are one-way: pending -> approved.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Installment is a single installment record. OwnerID references the User or
// Agent that owns it; AgentName is set when the owner is an agent so listings
// can show the name without a join.
type Installment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	OwnerID   string    `json:"ownerId"`
	AgentName string    `json:"agentName,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is a recognized installment status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved
}
