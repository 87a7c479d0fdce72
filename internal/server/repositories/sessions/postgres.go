package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements session storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const pgUniqueViolation = "23505"

// Create inserts the session row. A unique-constraint violation on the token
// column is reported as shared.ErrorAlreadyExists; the service regenerates
// the token rather than silently overwriting an existing session.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.Token, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return shared.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByToken returns the bare session row for token.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT id, token, created_at, expires_at FROM sessions WHERE token=$1`

	result := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&result.ID, &result.Token, &result.CreatedAt, &result.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return result, nil
}

// GetByID returns the bare session row by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, token, created_at, expires_at FROM sessions WHERE id=$1`

	result := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&result.ID, &result.Token, &result.CreatedAt, &result.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return result, nil
}

// SelectExpired returns every session with expires_at strictly before now,
// oldest first.
func (r *PostgresRepository) SelectExpired(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := `SELECT id, token, created_at, expires_at FROM sessions
		WHERE expires_at < $1
		ORDER BY expires_at
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired sessions: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		var item models.Session
		if err := rows.Scan(&item.ID, &item.Token, &item.CreatedAt, &item.ExpiresAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the session row. Zero affected rows means the session was
// already gone and is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM sessions WHERE id=$1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}
