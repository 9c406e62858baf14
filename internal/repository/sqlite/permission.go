package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/model"
)

// AddPermission grants a role on a bite. The UNIQUE (bite_id, user_id)
// constraint plus ON CONFLICT turns a repeated grant into a role update,
// so there is never more than one row per (bite, user) pair.
func (db *DB) AddPermission(ctx context.Context, perm *model.BitePermission) error {
	now := time.Now()
	perm.CreatedAt = now
	perm.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO bite_permissions (bite_id, user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (bite_id, user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		perm.BiteID, perm.UserID, perm.Role, perm.CreatedAt, perm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding permission for user %d on %s: %w", perm.UserID, perm.BiteID, err)
	}
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		perm.ID = id
	}
	return nil
}

// ListPermissions returns every permission row for a bite.
func (db *DB) ListPermissions(ctx context.Context, biteID string) ([]model.BitePermission, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bite_id, user_id, role, created_at, updated_at
		 FROM bite_permissions WHERE bite_id = ?
		 ORDER BY id`,
		biteID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing permissions for %s: %w", biteID, err)
	}
	defer rows.Close()

	var perms []model.BitePermission
	for rows.Next() {
		var p model.BitePermission
		if err := rows.Scan(
			&p.ID, &p.BiteID, &p.UserID, &p.Role, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning permission row: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating permissions: %w", err)
	}
	return perms, nil
}

// RemovePermission revokes a user's access to a bite.
func (db *DB) RemovePermission(ctx context.Context, biteID string, userID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM bite_permissions WHERE bite_id = ? AND user_id = ?`,
		biteID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing permission for user %d on %s: %w", userID, biteID, err)
	}
	return requireRows(result, "permission", fmt.Sprintf("%s/%d", biteID, userID))
}

// GetMetadata returns the single metadata row of a bite.
func (db *DB) GetMetadata(ctx context.Context, biteID string) (*model.BiteMetadata, error) {
	var m model.BiteMetadata
	var deps string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, bite_id, version, last_commit, dependencies, created_at, updated_at
		 FROM bite_metadata WHERE bite_id = ?`,
		biteID,
	).Scan(
		&m.ID, &m.BiteID, &m.Version, &m.LastCommit, &deps,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("bite metadata", biteID)
		}
		return nil, fmt.Errorf("sqlite: getting metadata for %s: %w", biteID, err)
	}
	if m.Dependencies, err = unmarshalList(deps); err != nil {
		return nil, fmt.Errorf("sqlite: decoding dependencies for %s: %w", biteID, err)
	}
	return &m, nil
}
