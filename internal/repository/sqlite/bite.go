package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository"
)

// compile-time check that *DB implements repository.BiteRepository
var _ repository.BiteRepository = (*DB)(nil)

const biteColumns = `id, bite_id, name, description, created_by, tags, downloads, likes, is_public, framework, created_at, updated_at`

// CreateWithDefaults persists a new bite together with its seed files,
// metadata row, and owner permission. Everything runs in one transaction:
// a failure at any step rolls the whole bite back, so a bite can never
// exist without its owner permission.
func (db *DB) CreateWithDefaults(ctx context.Context, bite *model.Bite, files []model.BiteFile, meta *model.BiteMetadata, perm *model.BitePermission) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning bite create: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	bite.CreatedAt = now
	bite.UpdatedAt = now

	tags, err := marshalList(bite.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bites (bite_id, name, description, created_by, tags, downloads, likes, is_public, framework, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)`,
		bite.BiteID,
		bite.Name,
		bite.Description,
		bite.CreatedBy,
		tags,
		bite.IsPublic,
		bite.Framework,
		bite.CreatedAt,
		bite.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting bite %s: %w", bite.BiteID, err)
	}
	if bite.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading new bite id: %w", err)
	}

	for i := range files {
		f := &files[i]
		f.BiteID = bite.BiteID
		f.CreatedAt = now
		f.UpdatedAt = now
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bite_files (bite_id, filename, content, file_type, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.BiteID, f.Filename, f.Content, f.FileType, f.CreatedAt, f.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding file %s: %w", f.Filename, err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: reading new file id: %w", err)
		}
	}

	deps, err := marshalList(meta.Dependencies)
	if err != nil {
		return fmt.Errorf("sqlite: encoding dependencies: %w", err)
	}
	meta.BiteID = bite.BiteID
	meta.CreatedAt = now
	meta.UpdatedAt = now
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bite_metadata (bite_id, version, last_commit, dependencies, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meta.BiteID, meta.Version, meta.LastCommit, deps, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting metadata for %s: %w", bite.BiteID, err)
	}
	if meta.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading new metadata id: %w", err)
	}

	perm.BiteID = bite.BiteID
	perm.CreatedAt = now
	perm.UpdatedAt = now
	res, err = tx.ExecContext(ctx,
		`INSERT INTO bite_permissions (bite_id, user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		perm.BiteID, perm.UserID, perm.Role, perm.CreatedAt, perm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting owner permission for %s: %w", bite.BiteID, err)
	}
	if perm.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading new permission id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing bite create: %w", err)
	}
	return nil
}

// GetByID retrieves a bite by its public 10-char identifier.
func (db *DB) GetByID(ctx context.Context, biteID string) (*model.Bite, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+biteColumns+` FROM bites WHERE bite_id = ?`, biteID)

	bite, err := scanBite(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("bite", biteID)
		}
		return nil, fmt.Errorf("sqlite: getting bite %s: %w", biteID, err)
	}
	return bite, nil
}

// ListPublic returns public bites, newest first.
func (db *DB) ListPublic(ctx context.Context, limit, offset int) ([]model.Bite, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+biteColumns+` FROM bites
		 WHERE is_public = 1
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing public bites: %w", err)
	}
	defer rows.Close()
	return collectBites(rows, limit)
}

// ListByUser returns every bite created by the given user, newest first.
func (db *DB) ListByUser(ctx context.Context, userID int64) ([]model.Bite, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+biteColumns+` FROM bites
		 WHERE created_by = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bites for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectBites(rows, 0)
}

// Update applies the provided changes to a bite. Nil fields are left alone.
func (db *DB) Update(ctx context.Context, biteID string, changes repository.BiteChanges) error {
	set := "updated_at = ?"
	args := []any{time.Now()}

	if changes.Name != nil {
		set += ", name = ?"
		args = append(args, *changes.Name)
	}
	if changes.Description != nil {
		set += ", description = ?"
		args = append(args, *changes.Description)
	}
	if changes.Tags != nil {
		tags, err := marshalList(changes.Tags)
		if err != nil {
			return fmt.Errorf("sqlite: encoding tags: %w", err)
		}
		set += ", tags = ?"
		args = append(args, tags)
	}
	if changes.IsPublic != nil {
		set += ", is_public = ?"
		args = append(args, *changes.IsPublic)
	}
	args = append(args, biteID)

	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE bites SET %s WHERE bite_id = ?`, set), args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating bite %s: %w", biteID, err)
	}
	return requireRows(result, "bite", biteID)
}

// IncrementDownloads bumps the download counter by one.
func (db *DB) IncrementDownloads(ctx context.Context, biteID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE bites SET downloads = downloads + 1 WHERE bite_id = ?`, biteID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: counting download for %s: %w", biteID, err)
	}
	return requireRows(result, "bite", biteID)
}

// requireRows turns an UPDATE/DELETE that matched nothing into NotFound.
func requireRows(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func scanBite(scan func(...any) error) (*model.Bite, error) {
	var b model.Bite
	var tags string
	err := scan(
		&b.ID, &b.BiteID, &b.Name, &b.Description, &b.CreatedBy,
		&tags, &b.Downloads, &b.Likes, &b.IsPublic, &b.Framework,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Tags, err = unmarshalList(tags); err != nil {
		return nil, fmt.Errorf("decoding tags for %s: %w", b.BiteID, err)
	}
	return &b, nil
}

func collectBites(rows *sql.Rows, capacity int) ([]model.Bite, error) {
	bites := make([]model.Bite, 0, capacity)
	for rows.Next() {
		b, err := scanBite(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning bite row: %w", err)
		}
		bites = append(bites, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bites: %w", err)
	}
	return bites, nil
}

// marshalList serializes a string list to the JSON text stored in tags and
// dependencies columns. nil marshals as the empty list.
func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	out, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func unmarshalList(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, err
	}
	return list, nil
}
