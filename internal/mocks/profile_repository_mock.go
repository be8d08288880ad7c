package mocks

import (
	"context"

	"storymagic/internal/models"
	"storymagic/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock type for the ProfileRepository type
type MockProfileRepository struct {
	mock.Mock
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.UserProfile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.UserProfile)
	}
	return r0, ret.Error(1)
}

// GetByUsername provides a mock function with given fields: ctx, username
func (_m *MockProfileRepository) GetByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	ret := _m.Called(ctx, username)

	var r0 *models.UserProfile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.UserProfile)
	}
	return r0, ret.Error(1)
}

// Create provides a mock function with given fields: ctx, profile
func (_m *MockProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

// Update provides a mock function with given fields: ctx, profile
func (_m *MockProfileRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

// SoftDelete provides a mock function with given fields: ctx, id
func (_m *MockProfileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// NewMockProfileRepository creates a new instance of MockProfileRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProfileRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.ProfileRepository = (*MockProfileRepository)(nil)
