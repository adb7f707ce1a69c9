package eventbus

import (
	"sync"

	"tram/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type EventType int

const (
	Start EventType = iota
	Stop
)

type Status int

const (
	Stopped Status = iota
	Started
)

// MockListener records every invocation it receives.
type MockListener struct {
	mock.Mock
}

func (m *MockListener) Handle(value *int) {
	m.Called(value)
}

func (m *MockListener) listener() ports.Listener[EventType, int] {
	return func(_ ports.EventBus[EventType, int], value *int) {
		m.Handle(value)
	}
}

func intPtr(v int) *int { return &v }

func pointsTo(want int) interface{} {
	return mock.MatchedBy(func(v *int) bool { return v != nil && *v == want })
}

// recorder is a goroutine-safe append-only log of listener labels.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, label)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}
