package mocks

import (
	"context"

	"storymagic/internal/service"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// CreateChatCompletion provides a mock function with given fields: ctx, req
func (_m *MockAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ret := _m.Called(ctx, req)

	var r0 openai.ChatCompletionResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(openai.ChatCompletionResponse)
	}
	return r0, ret.Error(1)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.AIClient = (*MockAIClient)(nil)
