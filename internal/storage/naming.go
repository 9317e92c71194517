package storage

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const maxNameLen = 255

// nameGenerator produces "<unix-millis>-<original>" names. Stamps are strictly increasing within a
// process, so two uploads of the same file in the same millisecond still get distinct names.
type nameGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newNameGenerator() *nameGenerator {
	return &nameGenerator{now: time.Now}
}

// Next returns a fresh name for an already sanitized original name.
func (g *nameGenerator) Next(original string) string {
	g.mu.Lock()
	stamp := g.now().UnixMilli()
	if stamp <= g.last {
		stamp = g.last + 1
	}
	g.last = stamp
	g.mu.Unlock()

	return strconv.FormatInt(stamp, 10) + "-" + original
}

// SanitizeFilename makes a client supplied file name safe to embed in a stored name and in a
// Content-Disposition header: path separators, control characters and quotes are neutralised,
// leading/trailing dots and spaces trimmed and the length capped.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == '"':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")

	// leave room for the "<stamp>-" prefix
	limit := maxNameLen - 20
	if len(out) > limit {
		ext := filepath.Ext(out)
		if len(ext) >= limit {
			ext = ""
		}
		base := out[:limit-len(ext)]
		for !utf8.ValidString(base) {
			base = base[:len(base)-1]
		}
		out = base + ext
	}
	if out == "" {
		out = "unnamed"
	}
	return out
}

// OriginalName recovers the client file name from a generated name.
func OriginalName(name string) string {
	i := strings.IndexByte(name, '-')
	if i <= 0 || i == len(name)-1 {
		return name
	}
	for _, c := range name[:i] {
		if c < '0' || c > '9' {
			return name
		}
	}
	return name[i+1:]
}

// validName reports whether name addresses a single entry directly inside the store.
func validName(name string) bool {
	if name == "" || len(name) > maxNameLen {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
