package eventbus

import (
	"context"
	"fmt"

	"tram/internal/core/domain"
	"tram/internal/core/ports"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JournalListener returns a listener for event that records each emission
// it sees in journal. Listeners cannot report errors, so failures are logged
// and the emission carries on.
//
// Seq is the bus count read at invocation time. On a ConcurrentBus other
// goroutines may have emitted in between, so it is an upper bound there.
func JournalListener[E comparable, V any](
	ctx context.Context,
	event E,
	busID uuid.UUID,
	journal ports.EmissionJournal,
	baseLogger *zerolog.Logger,
) ports.Listener[E, V] {
	key := fmt.Sprint(event)
	log := baseLogger.With().
		Str("component", "journal_listener").
		Str("bus_id", busID.String()).
		Str("event", key).
		Logger()

	return func(bus ports.EventBus[E, V], value *V) {
		e := &domain.Emission{
			BusID:    busID,
			EventKey: key,
			Seq:      bus.EventCount(),
		}

		if value != nil {
			payload, err := json.Marshal(value)
			if err != nil {
				log.Error().Err(err).Uint64("seq", e.Seq).Msg("Failed to encode payload, journaling without it")
			} else {
				e.Payload = payload
			}
		}

		if err := journal.Record(ctx, e); err != nil {
			log.Error().Err(err).Uint64("seq", e.Seq).Msg("Failed to journal emission")
		}
	}
}
