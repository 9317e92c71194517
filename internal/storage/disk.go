package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"qiblaapi/internal/model"
)

// maxNameAttempts bounds retries when a generated name is already taken on disk
// (e.g. by another process sharing the directory).
const maxNameAttempts = 8

// DiskStore implements ContentStore on a local directory.
// Files are stored flat at {dir}/{stamp}-{original}. The directory is created on first write.
type DiskStore struct {
	dir    string
	policy Policy
	names  *nameGenerator
}

var _ ContentStore = (*DiskStore)(nil)

// NewDiskStore creates a disk-backed content store rooted at dir.
func NewDiskStore(dir string, policy Policy) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty upload directory", ErrIOFailure)
	}
	return &DiskStore{dir: dir, policy: policy, names: newNameGenerator()}, nil
}

// Dir returns the directory the store writes into.
func (s *DiskStore) Dir() string { return s.dir }

// Put streams r into a new file. Nothing is created when the policy rejects the upload, and the
// partial file is removed when the stream exceeds the cap or fails midway.
func (s *DiskStore) Put(ctx context.Context, r io.Reader, opt PutOptions) (model.StoredFile, error) {
	if r == nil {
		return model.StoredFile{}, ErrReaderNil
	}
	ct, err := s.policy.Check(opt.ContentType, opt.Size)
	if err != nil {
		return model.StoredFile{}, err
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return model.StoredFile{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	original := SanitizeFilename(opt.OriginalName)
	f, name, err := s.create(original)
	if err != nil {
		return model.StoredFile{}, err
	}
	path := f.Name()

	lr := s.policy.limit(ctx, r)
	_, err = io.Copy(f, lr)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil || lr.Exceeded() {
		_ = os.Remove(path)
		switch {
		case lr.Exceeded() || errors.Is(err, ErrSizeExceeded):
			return model.StoredFile{}, fmt.Errorf("%w: more than %d bytes", ErrSizeExceeded, s.policy.MaxBytes)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return model.StoredFile{}, err
		default:
			return model.StoredFile{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}

	return model.StoredFile{
		Name:         name,
		OriginalName: original,
		Path:         path,
		Size:         lr.BytesRead(),
		ContentType:  ct,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// create opens a fresh file exclusively, moving to the next stamp on collision.
func (s *DiskStore) create(original string) (*os.File, string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.names.Next(original)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	return nil, "", fmt.Errorf("%w: no free name for %q", ErrIOFailure, original)
}

// Open returns the stored file for reading.
func (s *DiskStore) Open(ctx context.Context, name string) (io.ReadCloser, model.StoredFile, error) {
	if !validName(name) {
		return nil, model.StoredFile{}, ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.StoredFile{}, ErrNotFound
		}
		return nil, model.StoredFile{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, model.StoredFile{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, model.StoredFile{}, ErrNotFound
	}
	return f, model.StoredFile{
		Name:         name,
		OriginalName: OriginalName(name),
		Path:         path,
		Size:         st.Size(),
		ContentType:  ZipContentType,
		CreatedAt:    st.ModTime().UTC(),
	}, nil
}

// Delete removes a stored file.
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Ping verifies the store directory is usable. A directory that does not exist yet is fine;
// it is created on first upload.
func (s *DiskStore) Ping(ctx context.Context) error {
	st, err := os.Stat(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrIOFailure, s.dir)
	}
	return nil
}
