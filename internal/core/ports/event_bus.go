package ports

// Listener is a callback registered against an event key.
// bus is the handle performing the emission, so a listener can register
// more listeners or emit further events from inside its own call.
// value is nil when the event was emitted without a payload; it must not be
// retained after the listener returns.
type Listener[E comparable, V any] func(bus EventBus[E, V], value *V)

// EventEmitter is the capability shared by every bus variant.
type EventEmitter[E comparable, V any] interface {
	// On registers a listener for event. Listeners fire in registration order.
	On(event E, listener Listener[E, V]) error

	// Emit fires event without a payload. Same as EmitWithValue(event, nil).
	Emit(event E) error

	// EmitWithValue fires event, passing value to every listener.
	EmitWithValue(event E, value *V) error
}

// EventBus is an EventEmitter that also exposes its emission counters.
type EventBus[E comparable, V any] interface {
	EventEmitter[E, V]

	// EventCount returns the number of successful emissions.
	EventCount() uint64

	// Disconnected reports whether the emission limit has been reached.
	Disconnected() bool
}
