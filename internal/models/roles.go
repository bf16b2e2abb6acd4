package models

// Role values carried in token claims and checked by the middleware.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
	RoleUser  = "user"
)
