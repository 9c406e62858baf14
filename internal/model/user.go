// Package model defines the data structures used throughout the application.
package model

import "time"

// User roles. Site-wide, distinct from the per-bite Role ladder.
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// User represents a registered account.
//
// We use GitHub OAuth as the identity provider, so the external identifier
// is the GitHub user ID (an integer, stable across renames). The surrogate
// primary key ID is what the rest of the schema references.
//
// A user row is created on the first OAuth callback and updated (never
// destroyed) on subsequent logins. Email may be empty if the user has
// hidden it in their GitHub settings; we keep the zero value rather than a
// nullable pointer.
type User struct {
	ID           int64     `json:"id"`
	GitHubID     int64     `json:"githubId"`
	Name         string    `json:"name"`  // display name, falls back to login
	Email        string    `json:"email"` // may be empty
	LoginMethod  string    `json:"loginMethod"`
	AvatarURL    string    `json:"avatarUrl"`
	Role         string    `json:"role"` // "user" or "admin"
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}
