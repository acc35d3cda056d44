package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadgen-cli/internal/model"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string {
	return "mock"
}

func (m *mockSink) Push(ctx context.Context, records []model.FinalRecord) (SinkResult, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(SinkResult), args.Error(1)
}
