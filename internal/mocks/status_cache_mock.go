package mocks

import (
	"context"
	"time"

	"storymagic/internal/models"
	"storymagic/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockStatusCache is a mock type for the StatusCache type
type MockStatusCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, id
func (_m *MockStatusCache) Get(ctx context.Context, id string) (*models.StoryStatusResponse, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.StoryStatusResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoryStatusResponse)
	}
	return r0, ret.Error(1)
}

// Set provides a mock function with given fields: ctx, id, resp, ttl
func (_m *MockStatusCache) Set(ctx context.Context, id string, resp *models.StoryStatusResponse, ttl time.Duration) error {
	ret := _m.Called(ctx, id, resp, ttl)
	return ret.Error(0)
}

// Invalidate provides a mock function with given fields: ctx, id
func (_m *MockStatusCache) Invalidate(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// NewMockStatusCache creates a new instance of MockStatusCache. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStatusCache(t interface {
	mock.TestingT
	Helper()
}) *MockStatusCache {
	m := &MockStatusCache{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StatusCache = (*MockStatusCache)(nil)
