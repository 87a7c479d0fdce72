package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/shared"
)

// PostgresRepository implements file-metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the file row. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, session_id, name, size, path, storage_key, downloads, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.SessionID, file.Name, file.Size, file.Path, file.StorageKey, file.Downloads, file.Position)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// GetByID returns the file row for id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT id, session_id, name, size, path, storage_key, downloads FROM files
		WHERE id=$1
	`
	result := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&result.ID, &result.SessionID, &result.Name, &result.Size, &result.Path, &result.StorageKey, &result.Downloads)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return result, nil
}

// ListBySession returns all files of the session in upload order.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.File, error) {
	query := `SELECT id, session_id, name, size, path, storage_key, downloads FROM files
		WHERE session_id=$1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Name, &item.Size, &item.Path, &item.StorageKey, &item.Downloads); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// IncrementDownloads bumps the counter for id. Exactly one row must be
// affected.
func (r *PostgresRepository) IncrementDownloads(ctx context.Context, id string) error {
	query := `UPDATE files SET downloads = downloads + 1 WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

// DeleteBySession removes all file rows of the session.
func (r *PostgresRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM files WHERE session_id=$1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
