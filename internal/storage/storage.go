package storage

import (
	"context"
	"errors"
	"io"

	"qiblaapi/internal/model"
)

// Package storage holds the content store for uploaded archives.
// Backends write each upload under a generated, collision-free name and stream it back by that name.

var (
	// ErrNotFound indicates no stored file exists under the given name.
	ErrNotFound = errors.New("storage: file not found")

	// ErrContentTypeRejected indicates the upload's MIME type is not accepted by the policy.
	ErrContentTypeRejected = errors.New("storage: content type rejected")

	// ErrSizeExceeded indicates the upload is larger than the policy allows.
	ErrSizeExceeded = errors.New("storage: size limit exceeded")

	// ErrInvalidName indicates a name that does not address a file inside the store.
	ErrInvalidName = errors.New("storage: invalid file name")

	// ErrIOFailure indicates a read/write error in the backend.
	ErrIOFailure = errors.New("storage: I/O failure")

	// ErrReaderNil indicates Put was called without content.
	ErrReaderNil = errors.New("storage: reader is nil")
)

// PutOptions describe an incoming upload.
// Size is the declared length in bytes, or -1 when unknown; the policy limit is enforced
// while streaming either way.
type PutOptions struct {
	OriginalName string
	ContentType  string
	Size         int64
}

// ContentStore persists uploaded archives and makes them retrievable by generated name.
// Implementations are safe for concurrent use.
type ContentStore interface {
	// Put validates the upload against the store policy before writing anything, then writes it under a
	// newly generated unique name. A rejected or failed upload leaves no file behind.
	Put(ctx context.Context, r io.Reader, opt PutOptions) (model.StoredFile, error)
	// Open returns a reader over a stored file alongside its info. The caller must close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, model.StoredFile, error)
	// Delete removes a stored file. Used to roll back uploads that could not be indexed.
	Delete(ctx context.Context, name string) error
}

// Pinger is implemented by stores that can report whether their backend is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Pinger = (*DiskStore)(nil)
	_ Pinger = (*minioStore)(nil)
)
