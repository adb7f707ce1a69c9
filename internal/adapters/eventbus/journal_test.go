package eventbus

import (
	"context"
	"errors"
	"testing"

	"tram/internal/core/domain"
	"tram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmissionJournal is a mock for the EmissionJournal port
type MockEmissionJournal struct {
	mock.Mock
}

func (m *MockEmissionJournal) Record(ctx context.Context, e *domain.Emission) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEmissionJournal) ListByBus(ctx context.Context, busID uuid.UUID) ([]domain.Emission, error) {
	args := m.Called(ctx, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Emission), args.Error(1)
}

func (m *MockEmissionJournal) CountByBus(ctx context.Context, busID uuid.UUID) (int64, error) {
	args := m.Called(ctx, busID)
	return args.Get(0).(int64), args.Error(1)
}

// opaque refuses to be encoded.
type opaque struct{}

func (opaque) MarshalJSON() ([]byte, error) {
	return nil, errors.New("opaque")
}

type order struct {
	ID    string `json:"id"`
	Units int    `json:"units"`
}

func TestJournalListener_RecordsSeqAndPayload(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	bus := Unbound[string, order]()
	journal := new(MockEmissionJournal)

	journal.On("Record", ctx, mock.MatchedBy(func(e *domain.Emission) bool {
		return e.BusID == bus.ID() &&
			e.EventKey == "order.placed" &&
			e.Seq == 1 &&
			string(e.Payload) == `{"id":"o-1","units":3}`
	})).Return(nil).Once()
	journal.On("Record", ctx, mock.MatchedBy(func(e *domain.Emission) bool {
		return e.Seq == 2 && e.Payload == nil
	})).Return(nil).Once()

	require.NoError(t, bus.On("order.placed", JournalListener[string, order](ctx, "order.placed", bus.ID(), journal, &nopLogger)))

	require.NoError(t, bus.EmitWithValue("order.placed", &order{ID: "o-1", Units: 3}))
	require.NoError(t, bus.Emit("order.placed"))

	journal.AssertExpectations(t)
}

func TestJournalListener_RecordFailureDoesNotStopEmission(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	bus := UnboundLocal[string, int]()
	journal := new(MockEmissionJournal)
	journal.On("Record", ctx, mock.Anything).Return(errors.New("db down")).Once()

	after := false
	require.NoError(t, bus.On("tick", JournalListener[string, int](ctx, "tick", bus.ID(), journal, &nopLogger)))
	require.NoError(t, bus.On("tick", func(ports.EventBus[string, int], *int) { after = true }))

	require.NoError(t, bus.EmitWithValue("tick", intPtr(7)))

	journal.AssertExpectations(t)
	assert.True(t, after)
}

func TestJournalListener_UnencodablePayloadIsJournaledWithout(t *testing.T) {
	ctx := context.Background()
	nopLogger := zerolog.Nop()
	bus := UnboundLocal[string, opaque]()
	journal := new(MockEmissionJournal)
	journal.On("Record", ctx, mock.MatchedBy(func(e *domain.Emission) bool {
		return e.Payload == nil && e.Seq == 1
	})).Return(nil).Once()

	require.NoError(t, bus.On("ch", JournalListener[string, opaque](ctx, "ch", bus.ID(), journal, &nopLogger)))
	require.NoError(t, bus.EmitWithValue("ch", &opaque{}))

	journal.AssertExpectations(t)
}
