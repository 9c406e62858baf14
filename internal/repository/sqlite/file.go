package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/bite/internal/model"
)

// CreateFile inserts one file row for a bite. The table allows duplicate
// filenames per bite; nothing in the write path enforces uniqueness.
func (db *DB) CreateFile(ctx context.Context, file *model.BiteFile) error {
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO bite_files (bite_id, filename, content, file_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		file.BiteID, file.Filename, file.Content, file.FileType,
		file.CreatedAt, file.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating file %s for %s: %w", file.Filename, file.BiteID, err)
	}
	if file.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading new file id: %w", err)
	}
	return nil
}

// ListFiles returns every file of a bite, in filename order so the listing
// is stable across calls.
func (db *DB) ListFiles(ctx context.Context, biteID string) ([]model.BiteFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bite_id, filename, content, file_type, created_at, updated_at
		 FROM bite_files WHERE bite_id = ?
		 ORDER BY filename`,
		biteID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing files for %s: %w", biteID, err)
	}
	defer rows.Close()

	var files []model.BiteFile
	for rows.Next() {
		var f model.BiteFile
		if err := rows.Scan(
			&f.ID, &f.BiteID, &f.Filename, &f.Content, &f.FileType,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating files: %w", err)
	}
	return files, nil
}

// UpdateFile overwrites a file's content in place, keyed by (bite, filename).
func (db *DB) UpdateFile(ctx context.Context, biteID, filename, content string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE bite_files SET content = ?, updated_at = ?
		 WHERE bite_id = ? AND filename = ?`,
		content, time.Now(), biteID, filename,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating file %s of %s: %w", filename, biteID, err)
	}
	return requireRows(result, "file", filename)
}

// DeleteFile removes a file, keyed by (bite, filename).
func (db *DB) DeleteFile(ctx context.Context, biteID, filename string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM bite_files WHERE bite_id = ? AND filename = ?`,
		biteID, filename,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting file %s of %s: %w", filename, biteID, err)
	}
	return requireRows(result, "file", filename)
}
