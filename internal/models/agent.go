package models

import "time"

// Agent is a collection agent created by an admin. Agents log in with a
// username (matched case-insensitively) rather than an email and own the
// installments and amount entries assigned to them.
type Agent struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
