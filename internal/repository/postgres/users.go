package postgres

import (
	"context"
	"database/sql"
	"errors"

	"qiblaapi/internal/model"
	"qiblaapi/internal/repository"
)

// UsersPostgres is a PostgreSQL implementation of repository.UserRepository.
type UsersPostgres struct {
	db *sql.DB
}

// NewUsersPostgres creates a new UsersPostgres repository.
func NewUsersPostgres(db *sql.DB) *UsersPostgres {
	return &UsersPostgres{db: db}
}

var _ repository.UserRepository = (*UsersPostgres)(nil)

// Add inserts a user row. A conflicting email yields ErrAlreadyExists without touching the existing row.
func (r *UsersPostgres) Add(ctx context.Context, user *model.User) error {
	const q = `
		INSERT INTO users (email, pass_hash, type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING email
	`
	var email string
	err := r.db.QueryRowContext(ctx, q,
		repository.NormalizeEmail(user.Email),
		user.PassHash,
		user.Type,
		user.CreatedAt,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrAlreadyExists
	}
	return err
}

// FindByEmail fetches a single user.
func (r *UsersPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT email, pass_hash, type, created_at
		FROM users
		WHERE email = $1
	`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, repository.NormalizeEmail(email)).Scan(
		&u.Email,
		&u.PassHash,
		&u.Type,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
