// Package model defines the data structures used throughout the application.
package model

import "time"

// Provider tags how a user account was created.
const (
	ProviderCredentials = "credentials"
	ProviderGitHub      = "github"
)

// User represents a registered account.
//
// Accounts come from two places: the register form (email + password) and
// GitHub OAuth. The email is the unique key that ties both together — a
// GitHub sign-in with an email we already know reuses the existing account.
//
// WHY PasswordHash `json:"-"`?
// The `-` tag tells encoding/json to never serialize the field. Handlers
// return User values directly, so the bcrypt hash must be impossible to
// leak into a response by accident. OAuth accounts have an empty hash and
// can never log in with a password.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // unique
	PasswordHash string    `json:"-"         db:"password_hash"`
	Image        string    `json:"image,omitempty" db:"image"` // avatar URL (may be empty)
	Provider     string    `json:"provider"  db:"provider"`    // "credentials" or "github"
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// AsAuthor returns the public projection of this user used when expanding
// author references on snippets and comments.
func (u *User) AsAuthor() *Author {
	return &Author{ID: u.ID, Name: u.Name, Image: u.Image}
}
