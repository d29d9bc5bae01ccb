package mocks

import "context"

// MockEngine is a mock implementation of workflow.Engine for testing.
type MockEngine struct {
	StartFunc  func(ctx context.Context, name string, input any) (string, error)
	ResumeFunc func(ctx context.Context, token string, output any) error
}

func (m *MockEngine) Start(ctx context.Context, name string, input any) (string, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, name, input)
	}
	return "arn:aws:states:local:000000000000:execution:mock:" + name, nil
}

func (m *MockEngine) Resume(ctx context.Context, token string, output any) error {
	if m.ResumeFunc != nil {
		return m.ResumeFunc(ctx, token, output)
	}
	return nil
}
