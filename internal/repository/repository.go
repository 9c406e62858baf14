// Package repository defines the storage contracts the service layer
// depends on. The sqlite subpackage is the real implementation; Unavailable
// is the degraded stand-in used when no database is configured.
package repository

import (
	"context"
	"time"

	"github.com/sakif/bite/internal/model"
)

// UserUpsert carries the fields of a user insert-or-update. Nil pointers
// mean "leave unchanged" on an existing row (and zero value on a new one);
// a pointer to the empty string clears the field. GitHubID is the conflict
// key and is always required.
type UserUpsert struct {
	GitHubID     int64
	Name         *string
	Email        *string
	LoginMethod  *string
	AvatarURL    *string
	Role         *string
	LastSignedIn *time.Time
}

// BiteChanges is the whitelist of mutable bite fields. Nil means "leave
// unchanged"; the service layer decides which fields to set.
type BiteChanges struct {
	Name        *string
	Description *string
	Tags        []string // nil = unchanged, empty slice = clear
	IsPublic    *int
}

// Empty reports whether no field is set.
func (c BiteChanges) Empty() bool {
	return c.Name == nil && c.Description == nil && c.Tags == nil && c.IsPublic == nil
}

type UserRepository interface {
	// Upsert inserts or updates by GitHub ID and returns the stored row.
	// Every upsert stamps LastSignedIn (to now when not provided).
	Upsert(ctx context.Context, u UserUpsert) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

type BiteRepository interface {
	// CreateWithDefaults persists the bite row, its seed files, its metadata
	// row, and the owner permission in a single transaction. A failure at
	// any step rolls back the whole bite.
	CreateWithDefaults(ctx context.Context, bite *model.Bite, files []model.BiteFile, meta *model.BiteMetadata, perm *model.BitePermission) error

	GetByID(ctx context.Context, biteID string) (*model.Bite, error)
	ListPublic(ctx context.Context, limit, offset int) ([]model.Bite, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Bite, error)
	Update(ctx context.Context, biteID string, changes BiteChanges) error
	IncrementDownloads(ctx context.Context, biteID string) error

	CreateFile(ctx context.Context, file *model.BiteFile) error
	ListFiles(ctx context.Context, biteID string) ([]model.BiteFile, error)
	UpdateFile(ctx context.Context, biteID, filename, content string) error
	DeleteFile(ctx context.Context, biteID, filename string) error

	GetMetadata(ctx context.Context, biteID string) (*model.BiteMetadata, error)

	// AddPermission inserts a (bite, user, role) grant. The (bite, user)
	// pair is unique: adding again updates the role in place.
	AddPermission(ctx context.Context, perm *model.BitePermission) error
	ListPermissions(ctx context.Context, biteID string) ([]model.BitePermission, error)
	RemovePermission(ctx context.Context, biteID string, userID int64) error
}
