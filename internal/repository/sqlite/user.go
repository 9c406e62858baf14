package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts a user on first sign-in and updates only the provided
// fields on later sign-ins. Nil pointers in the UserUpsert mean "leave the
// stored value alone"; a pointer to "" clears it. Every call stamps
// last_signed_in, to the provided time or now.
//
// A single INSERT ... ON CONFLICT(github_id) DO UPDATE keeps this atomic:
// two concurrent first sign-ins for the same GitHub account cannot race a
// SELECT-then-INSERT into a UNIQUE violation.
func (db *DB) Upsert(ctx context.Context, u repository.UserUpsert) (*model.User, error) {
	if u.GitHubID == 0 {
		return nil, apperror.ValidationFailed("githubId", "github id is required for upsert")
	}

	lastSignedIn := time.Now()
	if u.LastSignedIn != nil {
		lastSignedIn = *u.LastSignedIn
	}

	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	role := model.UserRoleUser
	if u.Role != nil {
		role = *u.Role
	}

	// Conflict SET covers the always-stamped columns plus only the fields
	// the caller provided, so an omitted field keeps its stored value.
	set := "last_signed_in = excluded.last_signed_in, updated_at = excluded.updated_at"
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"name", u.Name},
		{"email", u.Email},
		{"login_method", u.LoginMethod},
		{"avatar_url", u.AvatarURL},
		{"role", u.Role},
	} {
		if f.value != nil {
			set += fmt.Sprintf(", %s = excluded.%s", f.column, f.column)
		}
	}

	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(
			`INSERT INTO users (github_id, name, email, login_method, avatar_url, role, created_at, updated_at, last_signed_in)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (github_id) DO UPDATE SET %s`, set),
		u.GitHubID,
		deref(u.Name),
		deref(u.Email),
		deref(u.LoginMethod),
		deref(u.AvatarURL),
		role,
		now,
		now,
		lastSignedIn,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting user (githubID=%d): %w", u.GitHubID, err)
	}

	return db.GetUserByGitHubID(ctx, u.GitHubID)
}

// GetUserByID retrieves a user by the internal numeric ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, name, email, login_method, avatar_url, role, created_at, updated_at, last_signed_in
		 FROM users WHERE id = ?`, id),
		fmt.Sprintf("%d", id))
}

// GetUserByGitHubID retrieves a user by their GitHub identity.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, name, email, login_method, avatar_url, role, created_at, updated_at, last_signed_in
		 FROM users WHERE github_id = ?`, githubID),
		fmt.Sprintf("github:%d", githubID))
}

func (db *DB) scanUser(row *sql.Row, id string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.GitHubID,
		&u.Name,
		&u.Email,
		&u.LoginMethod,
		&u.AvatarURL,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastSignedIn,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}
