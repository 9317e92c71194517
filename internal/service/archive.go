package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"qiblaapi/internal/model"
	"qiblaapi/internal/repository"
	"qiblaapi/internal/storage"
)

var tracer = otel.Tracer("qiblaapi/internal/service")

var (
	ErrEmailRequired       = errors.New("service: email is required")
	ErrFileRequired        = errors.New("service: zip file is required")
	ErrNoFilesFound        = errors.New("service: no files uploaded yet")
	ErrNoFileForEmail      = errors.New("service: no file for email")
	ErrFileMissingOnServer = errors.New("service: indexed file missing from store")
)

// UploadResult is what the upload endpoint reports back.
type UploadResult struct {
	Email string
	File  model.StoredFile
}

// Download is an open stored archive. The caller must close Body.
type Download struct {
	File model.StoredFile
	Body io.ReadCloser
}

// ArchiveService stores ZIP archives and retrieves the latest one per email.
type ArchiveService interface {
	// Upload stores the archive and makes it the current one for email.
	// If the index cannot be updated the stored file is deleted again.
	Upload(ctx context.Context, email string, r io.Reader, originalName, contentType string, size int64) (*UploadResult, error)

	// Retrieve opens the archive currently associated with email.
	Retrieve(ctx context.Context, email string) (*Download, error)
}

type archiveService struct {
	store storage.ContentStore
	index repository.ArchiveIndex
}

// NewArchiveService constructs a new ArchiveService.
func NewArchiveService(store storage.ContentStore, index repository.ArchiveIndex) ArchiveService {
	return &archiveService{store: store, index: index}
}

func (s *archiveService) Upload(ctx context.Context, email string, r io.Reader, originalName, contentType string, size int64) (*UploadResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if r == nil {
		return nil, ErrFileRequired
	}

	ctx, span := tracer.Start(ctx, "archive.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("archive.original_name", originalName),
		attribute.Int64("archive.declared_size", size),
	)

	file, err := s.store.Put(ctx, r, storage.PutOptions{
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store put failed")
		return nil, fmt.Errorf("store archive: %w", err)
	}
	span.SetAttributes(attribute.String("archive.name", file.Name))

	if err := s.index.Associate(ctx, email, file.Name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index associate failed")
		// Rollback: an unindexed file could never be retrieved.
		if delErr := s.store.Delete(ctx, file.Name); delErr != nil {
			return nil, fmt.Errorf("index update failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("index update failed: %w", err)
	}

	return &UploadResult{Email: email, File: file}, nil
}

func (s *archiveService) Retrieve(ctx context.Context, email string) (*Download, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	ctx, span := tracer.Start(ctx, "archive.retrieve")
	defer span.End()

	name, err := s.index.Lookup(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNoIndex):
		return nil, ErrNoFilesFound
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNoFileForEmail
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "index lookup failed")
		return nil, fmt.Errorf("index lookup: %w", err)
	}
	span.SetAttributes(attribute.String("archive.name", name))

	body, file, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, ErrFileMissingOnServer
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "store open failed")
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Download{File: file, Body: body}, nil
}
