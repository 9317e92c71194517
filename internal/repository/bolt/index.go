// Package bolt keeps the email index in a bbolt database, one key per email.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"qiblaapi/internal/repository"
)

var bucketIndex = []byte("email_index")

// Index is a repository.ArchiveIndex stored in a single bbolt bucket.
// The bucket is created by the first Associate, so a fresh database reports ErrNoIndex.
type Index struct {
	db *bbolt.DB
}

var _ repository.ArchiveIndex = (*Index)(nil)

// Open opens or creates the database at path, creating the parent directory if needed.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open db: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (x *Index) Close() error { return x.db.Close() }

// Associate records name for email inside one write transaction.
func (x *Index) Associate(ctx context.Context, email, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return x.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketIndex)
		if err != nil {
			return fmt.Errorf("bolt: create bucket: %w", err)
		}
		if err := b.Put([]byte(repository.NormalizeEmail(email)), []byte(name)); err != nil {
			return fmt.Errorf("bolt: put: %w", err)
		}
		return nil
	})
}

// Lookup returns the archive name for email.
func (x *Index) Lookup(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var name string
	err := x.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketIndex)
		if b == nil {
			return repository.ErrNoIndex
		}
		v := b.Get([]byte(repository.NormalizeEmail(email)))
		if v == nil {
			return repository.ErrNotFound
		}
		// v is only valid inside the transaction.
		name = string(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}
