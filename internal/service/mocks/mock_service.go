package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"qiblaapi/internal/model"
	"qiblaapi/internal/service"
)

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) Upload(ctx context.Context, email string, r io.Reader, originalName, contentType string, size int64) (*service.UploadResult, error) {
	args := m.Called(ctx, email, r, originalName, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockArchiveService) Retrieve(ctx context.Context, email string) (*service.Download, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Feed(ctx context.Context, in service.FeedUserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Check(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
