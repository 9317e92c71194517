package postgres

import (
	"context"
	"database/sql"
	"errors"

	"qiblaapi/internal/repository"
)

// ArchiveIndexPostgres is a PostgreSQL implementation of repository.ArchiveIndex.
// Each email is a primary key row; an upsert keeps the latest archive name.
type ArchiveIndexPostgres struct {
	db *sql.DB
}

// NewArchiveIndexPostgres creates a new ArchiveIndexPostgres repository.
func NewArchiveIndexPostgres(db *sql.DB) *ArchiveIndexPostgres {
	return &ArchiveIndexPostgres{db: db}
}

var _ repository.ArchiveIndex = (*ArchiveIndexPostgres)(nil)

// Associate inserts or replaces the archive name for email.
func (r *ArchiveIndexPostgres) Associate(ctx context.Context, email, name string) error {
	const q = `
		INSERT INTO archive_index (email, file_name, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE
		SET file_name = EXCLUDED.file_name, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, q, repository.NormalizeEmail(email), name)
	return err
}

// Lookup returns the archive name for email. An empty table is reported as ErrNoIndex.
func (r *ArchiveIndexPostgres) Lookup(ctx context.Context, email string) (string, error) {
	const q = `SELECT file_name FROM archive_index WHERE email = $1`
	var name string
	err := r.db.QueryRowContext(ctx, q, repository.NormalizeEmail(email)).Scan(&name)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	const qAny = `SELECT EXISTS (SELECT 1 FROM archive_index)`
	var populated bool
	if err := r.db.QueryRowContext(ctx, qAny).Scan(&populated); err != nil {
		return "", err
	}
	if !populated {
		return "", repository.ErrNoIndex
	}
	return "", repository.ErrNotFound
}
