package models

import "time"

// User represents a registered account. Every user carries their own token
// signing secret, so a leaked secret only affects that user's sessions.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Not serialized
	Status       string    `json:"status"`
	Secret       string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultStatus is assigned to every user at signup.
const DefaultStatus = "I am new!"
