// Package eventbus provides the two in-process bus handles: ConcurrentBus,
// which can be shared between goroutines, and LocalBus, for a single owner.
package eventbus

import (
	"errors"
	"fmt"
	"sync"

	"tram/internal/core/domain"
	"tram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// concurrentCore is the state block shared by every clone of a ConcurrentBus.
type concurrentCore[E comparable, V any] struct {
	mu       sync.Mutex
	state    *domain.BusState[E, ports.Listener[E, V]]
	poisoned bool
	id       uuid.UUID
	log      zerolog.Logger
}

// ConcurrentBus is a bus handle that is safe for use from many goroutines.
// All registrations and emissions across all clones are totally ordered by
// one mutex. The mutex is released before listeners run, so a listener may
// call On or Emit on the same handle without deadlocking.
type ConcurrentBus[E comparable, V any] struct {
	core *concurrentCore[E, V]
}

var _ ports.EventBus[string, int] = (*ConcurrentBus[string, int])(nil)

// Unbound creates a ConcurrentBus with no emission limit.
func Unbound[E comparable, V any](opts ...Option) *ConcurrentBus[E, V] {
	return newConcurrentBus[E, V](0, opts)
}

// Bound creates a ConcurrentBus that disconnects after limit emissions.
// A limit of 0 is the same as Unbound.
func Bound[E comparable, V any](limit uint64, opts ...Option) *ConcurrentBus[E, V] {
	return newConcurrentBus[E, V](limit, opts)
}

func newConcurrentBus[E comparable, V any](limit uint64, opts []Option) *ConcurrentBus[E, V] {
	o := newOptions(opts)
	id := uuid.New()
	log := o.log.With().
		Str("component", "concurrent_bus").
		Str("bus_id", id.String()).
		Logger()
	log.Debug().Uint64("emit_limit", limit).Msg("Event bus created")

	return &ConcurrentBus[E, V]{
		core: &concurrentCore[E, V]{
			state: domain.NewBusState[E, ports.Listener[E, V]](limit),
			id:    id,
			log:   log,
		},
	}
}

// withLock runs fn with exclusive access to the state. A panic escaping fn
// poisons the bus: the panic is re-raised and every later call fails with
// ErrBusLock.
func (c *concurrentCore[E, V]) withLock(fn func(*domain.BusState[E, ports.Listener[E, V]]) error) error {
	c.mu.Lock()
	if c.poisoned {
		c.mu.Unlock()
		return fmt.Errorf("%w: poisoned by an earlier panic", domain.ErrBusLock)
	}
	defer func() {
		if r := recover(); r != nil {
			c.poisoned = true
			c.mu.Unlock()
			c.log.Error().Interface("panic", r).Msg("Panic while holding bus lock, bus poisoned")
			panic(r)
		}
		c.mu.Unlock()
	}()
	return fn(c.state)
}

// read gives fn the state under the lock, ignoring poisoning. The only panic
// possible under the lock comes from hashing the key, which BusState does
// before touching a counter, so counters stay readable after poisoning.
func (c *concurrentCore[E, V]) read(fn func(*domain.BusState[E, ports.Listener[E, V]])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// ID returns the identifier shared by this handle and all its clones.
func (b *ConcurrentBus[E, V]) ID() uuid.UUID {
	return b.core.id
}

// Clone returns a new handle to the same underlying bus.
func (b *ConcurrentBus[E, V]) Clone() *ConcurrentBus[E, V] {
	return &ConcurrentBus[E, V]{core: b.core}
}

// On registers listener for event.
func (b *ConcurrentBus[E, V]) On(event E, listener ports.Listener[E, V]) error {
	if listener == nil {
		return domain.ErrNilListener
	}

	var count int
	err := b.core.withLock(func(s *domain.BusState[E, ports.Listener[E, V]]) error {
		s.Register(event, listener)
		count = s.ListenerCount(event)
		return nil
	})
	if err != nil {
		return err
	}

	b.core.log.Debug().Interface("event", event).Int("listeners", count).Msg("Listener registered")
	return nil
}

// Emit fires event without a payload.
func (b *ConcurrentBus[E, V]) Emit(event E) error {
	return b.EmitWithValue(event, nil)
}

// EmitWithValue fires event and blocks until every listener registered for
// it at the moment of the call has returned.
func (b *ConcurrentBus[E, V]) EmitWithValue(event E, value *V) error {
	var (
		snapshot []ports.Listener[E, V]
		seq      uint64
	)
	err := b.core.withLock(func(s *domain.BusState[E, ports.Listener[E, V]]) error {
		var err error
		snapshot, err = s.Begin(event)
		seq = s.EventCount()
		return err
	})
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

// EventCount returns the number of successful emissions.
func (b *ConcurrentBus[E, V]) EventCount() uint64 {
	var n uint64
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		n = s.EventCount()
	})
	return n
}

// Disconnected reports whether the emission limit has been reached.
func (b *ConcurrentBus[E, V]) Disconnected() bool {
	var d bool
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		d = s.Disconnected()
	})
	return d
}

// ListenerCount returns how many listeners are registered for event.
func (b *ConcurrentBus[E, V]) ListenerCount(event E) int {
	var n int
	b.core.read(func(s *domain.BusState[E, ports.Listener[E, V]]) {
		n = s.ListenerCount(event)
	})
	return n
}
