package mocks

import (
	"context"

	"storymagic/internal/models"
	"storymagic/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a mock type for the WebhookDispatcher type
type MockDispatcher struct {
	mock.Mock
}

// Dispatch provides a mock function with given fields: ctx, payload
func (_m *MockDispatcher) Dispatch(ctx context.Context, payload *models.DispatchPayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

// NewMockDispatcher creates a new instance of MockDispatcher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockDispatcher(t interface {
	mock.TestingT
	Helper()
}) *MockDispatcher {
	m := &MockDispatcher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.WebhookDispatcher = (*MockDispatcher)(nil)
