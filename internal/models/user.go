package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a requester or administrator as known from the identity provider.
type User struct {
	ID           int64     `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID    int64
	Role  Role
	Name  string
	Email string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
