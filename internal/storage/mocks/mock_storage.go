package mocks

import (
	"context"
	"io"

	"qiblaapi/internal/model"
	"qiblaapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) Put(ctx context.Context, r io.Reader, opt storage.PutOptions) (model.StoredFile, error) {
	args := m.Called(ctx, r, opt)
	if f, ok := args.Get(0).(func(context.Context, io.Reader, storage.PutOptions) model.StoredFile); ok {
		return f(ctx, r, opt), args.Error(1)
	}
	return args.Get(0).(model.StoredFile), args.Error(1)
}

func (m *MockContentStore) Open(ctx context.Context, name string) (io.ReadCloser, model.StoredFile, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.StoredFile), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(model.StoredFile), args.Error(2)
}

func (m *MockContentStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
