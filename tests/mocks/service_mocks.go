package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-mailfeed/internal/pubsub"
	"github.com/welldanyogia/webrana-mailfeed/internal/services"
)

// MockBus implements pubsub.Bus and records every published signal
type MockBus struct {
	mock.Mock
	mu      sync.Mutex
	signals []pubsub.Signal
}

// Publish records the signal and returns the configured error
func (m *MockBus) Publish(ctx context.Context, sig pubsub.Signal) error {
	args := m.Called(ctx, sig)
	m.mu.Lock()
	m.signals = append(m.signals, sig)
	m.mu.Unlock()
	return args.Error(0)
}

// Close shuts the bus down
func (m *MockBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Signals returns a copy of all recorded signals
func (m *MockBus) Signals() []pubsub.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pubsub.Signal, len(m.signals))
	copy(out, m.signals)
	return out
}

// MockCounterService implements services.CounterService
type MockCounterService struct {
	mock.Mock
}

// GetMailboxCounter returns the configured counter value
func (m *MockCounterService) GetMailboxCounter(ctx context.Context, mailboxID uint, kind services.CounterKind) (int64, error) {
	args := m.Called(ctx, mailboxID, kind)
	return args.Get(0).(int64), args.Error(1)
}
