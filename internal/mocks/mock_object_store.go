package mocks

import (
	"context"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
)

// MockObjectStore is a mock implementation of objectstore.ObjectStore for testing.
type MockObjectStore struct {
	MetadataFunc func(ctx context.Context, bucket, key string) (map[string]string, error)
	GetFunc      func(ctx context.Context, bucket, key string) ([]byte, error)
}

func (m *MockObjectStore) Metadata(ctx context.Context, bucket, key string) (map[string]string, error) {
	if m.MetadataFunc != nil {
		return m.MetadataFunc(ctx, bucket, key)
	}
	return map[string]string{}, nil
}

func (m *MockObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, bucket, key)
	}
	return nil, custom_errors.ErrNotFound
}
