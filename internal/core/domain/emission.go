package domain

import (
	"time"

	"github.com/google/uuid"
)

// Emission is one journaled emission as observed by a journal listener.
type Emission struct {
	ID       uuid.UUID
	BusID    uuid.UUID
	EventKey string
	// Seq is the bus emission count seen by the listener, which already
	// includes the emission being recorded.
	Seq uint64
	// Payload is the JSON encoding of the emitted value, nil when the event
	// carried none.
	Payload    []byte
	RecordedAt time.Time
}
