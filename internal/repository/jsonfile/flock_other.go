//go:build !unix

package jsonfile

import (
	"fmt"
	"os"
)

// Without flock the index is serialised by the in-process mutex only.

// acquireLock opens the lock file but does not take a cross-process lock.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// releaseLock closes the lock file.
func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
}
