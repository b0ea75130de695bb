package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dgellow/invite-front/internal/agent"
)

// MockInvoker is a testify mock for the agent.Invoker boundary.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, instruction string) (*agent.Response, error) {
	args := m.Called(ctx, instruction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Response), args.Error(1)
}

var _ agent.Invoker = (*MockInvoker)(nil)
