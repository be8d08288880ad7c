package mocks

import (
	"context"
	"io"

	"storymagic/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockImageStore is a mock type for the ImageStore type
type MockImageStore struct {
	mock.Mock
}

// Upload provides a mock function with given fields: ctx, key, contentType, body
func (_m *MockImageStore) Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	ret := _m.Called(ctx, key, contentType, body)
	return ret.String(0), ret.Error(1)
}

// PublicURL provides a mock function with given fields: key
func (_m *MockImageStore) PublicURL(key string) string {
	ret := _m.Called(key)
	return ret.String(0)
}

// Host provides a mock function with no fields
func (_m *MockImageStore) Host() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockImageStore creates a new instance of MockImageStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockImageStore(t interface {
	mock.TestingT
	Helper()
}) *MockImageStore {
	m := &MockImageStore{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ storage.ImageStore = (*MockImageStore)(nil)
