package mocks

import (
	"context"

	"storymagic/internal/models"
	"storymagic/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, story
func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	ret := _m.Called(ctx, story)
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

// GetBySlug provides a mock function with given fields: ctx, slug
func (_m *MockStoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Story, error) {
	ret := _m.Called(ctx, slug)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

// ApplyStatusUpdate provides a mock function with given fields: ctx, id, patch
func (_m *MockStoryRepository) ApplyStatusUpdate(ctx context.Context, id string, patch repository.StatusPatch) error {
	ret := _m.Called(ctx, id, patch)
	return ret.Error(0)
}

// UpdateImage provides a mock function with given fields: ctx, id, imageURL, status
func (_m *MockStoryRepository) UpdateImage(ctx context.Context, id string, imageURL *string, status models.ImageStatus) error {
	ret := _m.Called(ctx, id, imageURL, status)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx, filter
func (_m *MockStoryRepository) List(ctx context.Context, filter models.StoryListFilter) ([]models.StorySummary, int64, error) {
	ret := _m.Called(ctx, filter)

	var r0 []models.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.StorySummary)
	}
	return r0, ret.Get(1).(int64), ret.Error(2)
}

// ListByAuthor provides a mock function with given fields: ctx, authorID
func (_m *MockStoryRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.StorySummary, error) {
	ret := _m.Called(ctx, authorID)

	var r0 []models.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.StorySummary)
	}
	return r0, ret.Error(1)
}

// ListExternallyHostedImages provides a mock function with given fields: ctx, storageHost, limit
func (_m *MockStoryRepository) ListExternallyHostedImages(ctx context.Context, storageHost string, limit int) ([]*models.Story, error) {
	ret := _m.Called(ctx, storageHost, limit)

	var r0 []*models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Story)
	}
	return r0, ret.Error(1)
}

// CountImageHosting provides a mock function with given fields: ctx, storageHost
func (_m *MockStoryRepository) CountImageHosting(ctx context.Context, storageHost string) (int64, int64, error) {
	ret := _m.Called(ctx, storageHost)
	return ret.Get(0).(int64), ret.Get(1).(int64), ret.Error(2)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)
