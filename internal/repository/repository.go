package repository

import (
	"context"
	"errors"
	"strings"

	"qiblaapi/internal/model"
)

// Package repository contains data access abstractions for the email index and the user registry.
// Implementations live in subpackages (jsonfile, bolt, memory, postgres).

var (
	// ErrNotFound indicates the requested key has no entry.
	ErrNotFound = errors.New("repository: not found")

	// ErrNoIndex indicates the index backing structure does not exist yet (nothing was ever uploaded).
	ErrNoIndex = errors.New("repository: index does not exist")

	// ErrAlreadyExists indicates an insert collided with an existing key.
	ErrAlreadyExists = errors.New("repository: already exists")
)

// ArchiveIndex maps an email to the name of the archive most recently uploaded for it.
// Associate overwrites any previous entry for the same email and never drops other emails.
type ArchiveIndex interface {
	// Associate records name as the current archive for email.
	Associate(ctx context.Context, email, name string) error

	// Lookup returns the archive name for email.
	// It returns ErrNoIndex when the index has never been written and ErrNotFound when email has no entry.
	Lookup(ctx context.Context, email string) (string, error)
}

// UserRepository stores registry users keyed by email.
type UserRepository interface {
	// Add inserts a new user, failing with ErrAlreadyExists when the email is taken.
	Add(ctx context.Context, user *model.User) error

	// FindByEmail returns the user or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// NormalizeEmail is the canonical key form for emails across all backends.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
