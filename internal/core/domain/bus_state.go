package domain

import "slices"

// BusState is the data owned by one logical bus: the listener table and the
// emission counters. It holds no lock of its own; the bus handles that wrap
// it decide how access is arbitrated.
//
// L is the listener type. BusState never calls a listener itself except
// through the invoke func given to Emit, so it stays independent of the
// listener signature.
type BusState[E comparable, L any] struct {
	listeners map[E][]L
	emitCount uint64
	emitLimit uint64
}

// NewBusState creates an empty state. A limit of 0 means unbounded.
func NewBusState[E comparable, L any](limit uint64) *BusState[E, L] {
	return &BusState[E, L]{
		listeners: make(map[E][]L),
		emitLimit: limit,
	}
}

// Register appends a listener to the sequence for key.
func (s *BusState[E, L]) Register(key E, listener L) {
	s.listeners[key] = append(s.listeners[key], listener)
}

// Begin performs the state half of an emission. On success the counter has
// already been incremented and the returned slice is a private copy of the
// listeners for key, safe to iterate after the caller releases access.
//
// The lookup runs before the increment: hashing a key whose dynamic type is
// not comparable panics, and such an emission must not be counted.
func (s *BusState[E, L]) Begin(key E) ([]L, error) {
	if s.Disconnected() {
		return nil, ErrDisconnected
	}
	registered := s.listeners[key]
	s.emitCount++

	if len(registered) == 0 {
		return nil, nil
	}
	return slices.Clone(registered), nil
}

// Emit runs Begin and then hands every snapshot listener, in registration
// order, to invoke. Panics raised by invoke are not recovered.
func (s *BusState[E, L]) Emit(key E, invoke func(L)) error {
	snapshot, err := s.Begin(key)
	if err != nil {
		return err
	}
	for _, l := range snapshot {
		invoke(l)
	}
	return nil
}

// Disconnected reports whether a bounded state has used up its emissions.
func (s *BusState[E, L]) Disconnected() bool {
	return s.emitLimit != 0 && s.emitCount == s.emitLimit
}

// EventCount returns the number of successful emissions so far.
func (s *BusState[E, L]) EventCount() uint64 {
	return s.emitCount
}

// EmitLimit returns the configured cap, 0 when unbounded.
func (s *BusState[E, L]) EmitLimit() uint64 {
	return s.emitLimit
}

// ListenerCount returns how many listeners are registered for key.
func (s *BusState[E, L]) ListenerCount(key E) int {
	return len(s.listeners[key])
}
