package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
)

// ZipContentType is the canonical MIME type served for stored archives.
const ZipContentType = "application/zip"

// DefaultMaxBytes is the default upload cap (50 MiB).
const DefaultMaxBytes int64 = 50 * 1024 * 1024

// Policy is the content filter applied before any byte of an upload is persisted.
type Policy struct {
	// MaxBytes caps the stored size. Zero or negative disables the cap.
	MaxBytes int64
	// AllowedTypes lists accepted MIME types, compared without parameters and case-insensitively.
	AllowedTypes []string
}

// DefaultPolicy accepts ZIP uploads up to 50 MiB.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:     DefaultMaxBytes,
		AllowedTypes: []string{ZipContentType, "application/x-zip-compressed"},
	}
}

// Check validates the declared content type and size and returns the normalized content type.
func (p Policy) Check(contentType string, size int64) (string, error) {
	ct := normalizeContentType(contentType)
	if !p.allows(ct) {
		return "", fmt.Errorf("%w: %q", ErrContentTypeRejected, ct)
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrSizeExceeded, size)
	}
	return ct, nil
}

func (p Policy) allows(ct string) bool {
	if ct == "" {
		return false
	}
	for _, allowed := range p.AllowedTypes {
		if normalizeContentType(allowed) == ct {
			return true
		}
	}
	return false
}

// limit wraps r so reading more than MaxBytes fails with ErrSizeExceeded.
func (p Policy) limit(ctx context.Context, r io.Reader) *limitedReader {
	return &limitedReader{ctx: ctx, r: r, remaining: p.MaxBytes, unlimited: p.MaxBytes <= 0}
}

// normalizeContentType lower-cases a MIME type and strips parameters such as charset.
func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// limitedReader stops a stream once it grows past the cap and checks for cancellation between reads.
type limitedReader struct {
	ctx       context.Context
	r         io.Reader
	remaining int64
	unlimited bool
	exceeded  bool
	n         int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if err := l.ctx.Err(); err != nil {
		return 0, err
	}
	if l.exceeded {
		return 0, ErrSizeExceeded
	}
	if !l.unlimited && int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.n += int64(n)
	if !l.unlimited {
		l.remaining -= int64(n)
		if l.remaining < 0 {
			l.exceeded = true
			return n, ErrSizeExceeded
		}
	}
	return n, err
}

// Exceeded reports whether the stream went past the cap.
func (l *limitedReader) Exceeded() bool { return l.exceeded }

// BytesRead returns the number of bytes handed to the caller so far.
func (l *limitedReader) BytesRead() int64 { return l.n }
