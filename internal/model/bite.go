// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is a per-bite, per-user access level.
//
// The three roles form a strict ladder: owner can do everything developer
// can, developer can do everything viewer can. Viewer exists so a bite can
// be shared with someone explicitly without making it public.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleDeveloper Role = "developer"
	RoleViewer    Role = "viewer"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleDeveloper, RoleViewer:
		return true
	}
	return false
}

// Bite is a shareable unit of web UI: a name, a description, and a set of
// text files (HTML/CSS/JS/Markdown/JSON).
//
// ID is the surrogate database key; BiteID is the public-facing identifier
// used in every URL and every cross-table reference. Tags live as a JSON
// array in a TEXT column — the repository serializes at the boundary so the
// rest of the app only ever sees []string.
type Bite struct {
	ID          int64     `json:"id"`
	BiteID      string    `json:"biteId"` // 10-char random alphanumeric, unique
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"createdBy"`
	Tags        []string  `json:"tags"`
	Downloads   int       `json:"downloads"`
	Likes       int       `json:"likes"`
	IsPublic    int       `json:"isPublic"` // 1 = public, 0 = private
	Framework   string    `json:"framework"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BiteFile is one file belonging to a bite. Files are not versioned — an
// update overwrites Content in place.
type BiteFile struct {
	ID        int64     `json:"id"`
	BiteID    string    `json:"biteId"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	FileType  string    `json:"fileType"` // html, css, js, md, json, other
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BiteMetadata is the auxiliary per-bite record: semantic version, last
// commit text, and a dependency list. Exactly one row per bite.
type BiteMetadata struct {
	ID           int64     `json:"id"`
	BiteID       string    `json:"biteId"`
	Version      string    `json:"version"`
	LastCommit   string    `json:"lastCommit"`
	Dependencies []string  `json:"dependencies"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BitePermission grants one user one role on one bite.
// (BiteID, UserID) is unique — adding a permission for an existing pair
// updates the role instead of inserting a second row.
type BitePermission struct {
	ID        int64     `json:"id"`
	BiteID    string    `json:"biteId"`
	UserID    int64     `json:"userId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BiteVersion is a row in the version-history table. The table is part of
// the schema for forward compatibility, but no procedure currently writes
// or reads it.
type BiteVersion struct {
	ID            int64     `json:"id"`
	BiteID        string    `json:"biteId"`
	VersionNumber int       `json:"versionNumber"`
	Message       string    `json:"message"`
	CreatedBy     int64     `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}
