package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/restovia/resto-realtime/internal/core/domain"
	"github.com/restovia/resto-realtime/internal/core/ports"
)

// MockOrderRepository is a mock implementation of ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListActive(ctx context.Context, branchID string) ([]*domain.Order, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// MockTableRepository is a mock implementation of ports.TableRepository
type MockTableRepository struct {
	mock.Mock
}

func NewMockTableRepository() *MockTableRepository {
	return &MockTableRepository{}
}

func (m *MockTableRepository) UpdateStatus(ctx context.Context, tableID string, status domain.TableStatus) (*domain.Table, error) {
	args := m.Called(ctx, tableID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

// RecordingBroadcaster implements ports.EventBroadcaster and records
// every delivered event in order. Simpler than a testify mock for
// assertions about fan-out sequences.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.Event
}

var _ ports.EventBroadcaster = (*RecordingBroadcaster)(nil)

func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

func (b *RecordingBroadcaster) Deliver(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// Events returns a copy of all delivered events in delivery order.
func (b *RecordingBroadcaster) Events() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Event, len(b.events))
	copy(out, b.events)
	return out
}
