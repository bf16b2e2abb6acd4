package models

import "time"

// User captures application-facing fields for an authenticated identity.
// Role is "admin" for the bootstrap admin and "user" for everyone else;
// agents are a distinct identity class (see Agent).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
