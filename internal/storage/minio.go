package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"qiblaapi/internal/config"
	"qiblaapi/internal/model"
)

// minioStore implements ContentStore using an S3-compatible backend (MinIO, AWS S3, etc.).
// Objects are keyed by generated name directly under the bucket root.
// It is safe for concurrent use by multiple goroutines.
type minioStore struct {
	client *minio.Client
	bucket string
	policy Policy
	names  *nameGenerator
}

// NewMinIO creates a new S3-compatible content store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig, policy Policy) (ContentStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	base, err := minio.DefaultTransport(cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("create minio transport: %w", err)
	}

	// Outbound object storage calls become child spans of the request span.
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(base),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStore{client: cli, bucket: cfg.Bucket, policy: policy, names: newNameGenerator()}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// Put uploads an object using streaming I/O only (no local disk).
// A stream that grows past the policy cap aborts the upload, so no object becomes visible.
func (m *minioStore) Put(ctx context.Context, r io.Reader, opt PutOptions) (model.StoredFile, error) {
	if r == nil {
		return model.StoredFile{}, ErrReaderNil
	}
	ct, err := m.policy.Check(opt.ContentType, opt.Size)
	if err != nil {
		return model.StoredFile{}, err
	}

	original := SanitizeFilename(opt.OriginalName)
	name := m.names.Next(original)

	size := opt.Size
	if size <= 0 {
		size = -1
	}
	lr := m.policy.limit(ctx, r)
	info, err := m.client.PutObject(ctx, m.bucket, name, lr, size, minio.PutObjectOptions{
		ContentType: ct,
		UserMetadata: map[string]string{
			"original-filename": original,
		},
	})
	if lr.Exceeded() {
		// a completed put can only happen if the declared size lied; drop it
		if err == nil {
			_ = m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
		}
		return model.StoredFile{}, fmt.Errorf("%w: more than %d bytes", ErrSizeExceeded, m.policy.MaxBytes)
	}
	if err != nil {
		return model.StoredFile{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return model.StoredFile{
		Name:         name,
		OriginalName: original,
		Path:         m.bucket + "/" + name,
		Size:         info.Size,
		ContentType:  ct,
		CreatedAt:    time.Now().UTC(), // MinIO PutObjectInfo doesn't return LastModified
	}, nil
}

// Open downloads an object content as a ReadCloser along with basic info.
func (m *minioStore) Open(ctx context.Context, name string) (io.ReadCloser, model.StoredFile, error) {
	if !validName(name) {
		return nil, model.StoredFile{}, ErrInvalidName
	}
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, model.StoredFile{}, translateMinIOError(err)
	}
	// Fetch stat to populate info; avoid reading content into memory.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, model.StoredFile{}, translateMinIOError(err)
	}
	ct := st.ContentType
	if ct == "" {
		ct = ZipContentType
	}
	return obj, model.StoredFile{
		Name:         name,
		OriginalName: OriginalName(name),
		Path:         m.bucket + "/" + name,
		Size:         st.Size,
		ContentType:  ct,
		CreatedAt:    st.LastModified,
	}, nil
}

// Delete removes an object by key.
func (m *minioStore) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return translateMinIOError(err)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (m *minioStore) Ping(ctx context.Context) error {
	if _, err := m.client.BucketExists(ctx, m.bucket); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func translateMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}
