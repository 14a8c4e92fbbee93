package models

import "github.com/google/uuid"

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`

	// IsGuest marks auto-created users who never registered a password.
	IsGuest bool `json:"is_guest"`
}
