package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	sharedBus "github.com/davicafu/backoffice/internal/shared/infra/platform/bus"
)

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	evts, _ := args.Get(0).([]sharedDomain.OutboxEvent)
	return evts, args.Error(1)
}

func (m *MockOutboxRepository) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	_ sharedDomain.OutboxRepository = (*MockOutboxRepository)(nil)
	_ sharedBus.EventBus            = (*MockPublisher)(nil)
)
