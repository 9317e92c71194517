// Package jsonfile persists the email index as a single JSON object on disk.
//
// Writers run a full read-modify-write of the mapping under an in-process mutex and an exclusive
// flock on "<path>.lock", then replace the file through a temp file and rename. Readers take no lock:
// the rename is atomic, so a reader observes either the previous or the next mapping.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"qiblaapi/internal/repository"
)

// Index is a repository.ArchiveIndex backed by a JSON file of the form {"email": "name"}.
type Index struct {
	path string
	mu   sync.Mutex
}

var _ repository.ArchiveIndex = (*Index)(nil)

// New returns an index stored at path. Nothing is created until the first Associate.
func New(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("jsonfile: index path is required")
	}
	return &Index{path: path}, nil
}

// Path returns the location of the backing file.
func (x *Index) Path() string { return x.path }

// Associate sets email -> name, keeping every other entry.
func (x *Index) Associate(ctx context.Context, email, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(x.path), 0o750); err != nil {
		return fmt.Errorf("jsonfile: create directory: %w", err)
	}
	lock, err := acquireLock(x.path + ".lock")
	if err != nil {
		return fmt.Errorf("jsonfile: %w", err)
	}
	defer releaseLock(lock)

	mapping, err := x.load()
	if errors.Is(err, repository.ErrNoIndex) {
		mapping = make(map[string]string)
	} else if err != nil {
		return err
	}

	mapping[repository.NormalizeEmail(email)] = name
	return x.store(mapping)
}

// Lookup returns the archive name recorded for email.
func (x *Index) Lookup(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mapping, err := x.load()
	if err != nil {
		return "", err
	}
	name, ok := mapping[repository.NormalizeEmail(email)]
	if !ok {
		return "", repository.ErrNotFound
	}
	return name, nil
}

// load reads the whole mapping. A missing file is ErrNoIndex; an empty or null file is an empty mapping.
func (x *Index) load() (map[string]string, error) {
	data, err := os.ReadFile(x.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNoIndex
		}
		return nil, fmt.Errorf("jsonfile: read index: %w", err)
	}
	mapping := make(map[string]string)
	if len(data) == 0 {
		return mapping, nil
	}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("jsonfile: decode index: %w", err)
	}
	// A literal null decodes to a nil map.
	if mapping == nil {
		mapping = make(map[string]string)
	}
	return mapping, nil
}

// store replaces the backing file atomically.
func (x *Index) store(mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(x.path), "."+filepath.Base(x.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o640)
	}
	if err == nil {
		err = os.Rename(tmpName, x.path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write index: %w", err)
	}
	return nil
}
