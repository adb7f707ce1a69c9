package eventbus

import (
	"errors"
	"fmt"

	"tram/internal/core/domain"
	"tram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type localCore[E comparable, V any] struct {
	cell  borrowCell
	state *domain.BusState[E, ports.Listener[E, V]]
	id    uuid.UUID
	log   zerolog.Logger
}

// LocalBus is a bus handle for a single owner. It takes no locks and must
// not be used from more than one goroutine at a time. Access to the state is
// arbitrated by runtime-checked borrows; a conflicting access fails with
// ErrBusLock instead of blocking.
type LocalBus[E comparable, V any] struct {
	core *localCore[E, V]
}

var _ ports.EventBus[string, int] = (*LocalBus[string, int])(nil)

// UnboundLocal creates a LocalBus with no emission limit.
func UnboundLocal[E comparable, V any](opts ...Option) *LocalBus[E, V] {
	return newLocalBus[E, V](0, opts)
}

// BoundLocal creates a LocalBus that disconnects after limit emissions.
// A limit of 0 is the same as UnboundLocal.
func BoundLocal[E comparable, V any](limit uint64, opts ...Option) *LocalBus[E, V] {
	return newLocalBus[E, V](limit, opts)
}

func newLocalBus[E comparable, V any](limit uint64, opts []Option) *LocalBus[E, V] {
	o := newOptions(opts)
	id := uuid.New()
	log := o.log.With().
		Str("component", "local_bus").
		Str("bus_id", id.String()).
		Logger()
	log.Debug().Uint64("emit_limit", limit).Msg("Event bus created")

	return &LocalBus[E, V]{
		core: &localCore[E, V]{
			state: domain.NewBusState[E, ports.Listener[E, V]](limit),
			id:    id,
			log:   log,
		},
	}
}

// ID returns the identifier shared by this handle and all its clones.
func (b *LocalBus[E, V]) ID() uuid.UUID {
	return b.core.id
}

// Clone returns a new handle to the same underlying bus.
func (b *LocalBus[E, V]) Clone() *LocalBus[E, V] {
	return &LocalBus[E, V]{core: b.core}
}

// On registers listener for event. It needs an exclusive borrow.
func (b *LocalBus[E, V]) On(event E, listener ports.Listener[E, V]) error {
	if listener == nil {
		return domain.ErrNilListener
	}
	if !b.core.cell.tryBorrowMut() {
		b.core.log.Warn().Interface("event", event).Msg("Listener table already borrowed")
		return domain.ErrBusLock
	}
	defer b.core.cell.release()

	b.core.state.Register(event, listener)
	b.core.log.Debug().
		Interface("event", event).
		Int("listeners", b.core.state.ListenerCount(event)).
		Msg("Listener registered")
	return nil
}

// Emit fires event without a payload.
func (b *LocalBus[E, V]) Emit(event E) error {
	return b.EmitWithValue(event, nil)
}

// EmitWithValue fires event. The borrow covers only the counter update and
// the listener snapshot, so listeners are free to call back into the bus.
func (b *LocalBus[E, V]) EmitWithValue(event E, value *V) error {
	snapshot, seq, err := b.begin(event)
	if err != nil {
		if errors.Is(err, domain.ErrDisconnected) {
			b.core.log.Warn().Interface("event", event).Uint64("emit_count", seq).Msg("Emit on disconnected bus")
		}
		return err
	}

	b.core.log.Debug().
		Interface("event", event).
		Uint64("seq", seq).
		Int("listeners", len(snapshot)).
		Msg("Event emitted")

	for _, l := range snapshot {
		l(b, value)
	}
	return nil
}

func (b *LocalBus[E, V]) begin(event E) ([]ports.Listener[E, V], uint64, error) {
	if !b.core.cell.tryBorrowMut() {
		b.core.log.Warn().Interface("event", event).Msg("Listener table already borrowed")
		return nil, 0, domain.ErrBusLock
	}
	defer b.core.cell.release()

	snapshot, err := b.core.state.Begin(event)
	return snapshot, b.core.state.EventCount(), err
}

// read gives fn the state under a shared borrow. Every borrow is released
// before the bus returns or runs a listener, so a conflict here means the bus
// is being used from more than one goroutine; that is a programming error and
// panics with ErrBusLock.
func (c *localCore[E, V]) read(fn func(*domain.BusState[E, ports.Listener[E, V]])) {
	if !c.cell.tryBorrow() {
		c.log.Error().Msg("Read while the listener table is exclusively borrowed")
		panic(fmt.Errorf("%w: read during an exclusive borrow", domain.ErrBusLock))
	}
	defer c.cell.release()
	fn(c.state)
}

// EventCount returns the number of successful emissions.
func (b *LocalBus[E, V]) EventCount() uint64 {
	var n uint64
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		n = s.EventCount()
	})
	return n
}

// Disconnected reports whether the emission limit has been reached.
func (b *LocalBus[E, V]) Disconnected() bool {
	var d bool
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		d = s.Disconnected()
	})
	return d
}

// ListenerCount returns how many listeners are registered for event.
func (b *LocalBus[E, V]) ListenerCount(event E) int {
	var n int
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		n = s.ListenerCount(event)
	})
	return n
}
