package postgres

import (
	"context"
	"time"

	"tram/internal/core/domain"
	"tram/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type emissionJournal struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.EmissionJournal = (*emissionJournal)(nil)

// NewEmissionJournal creates a journal backed by the emissions table.
func NewEmissionJournal(db *DB, baseLogger *zerolog.Logger) ports.EmissionJournal {
	return &emissionJournal{
		db:  db,
		log: baseLogger.With().Str("component", "emission_journal").Logger(),
	}
}

// Record inserts one emission. Missing ID and RecordedAt are filled in.
func (j *emissionJournal) Record(ctx context.Context, e *domain.Emission) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO emissions (id, bus_id, event_key, seq, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	// A nil []byte is sent as SQL NULL.
	var payload any
	if e.Payload != nil {
		payload = string(e.Payload)
	}
	_, err := j.db.pool.Exec(ctx, query, e.ID, e.BusID, e.EventKey, int64(e.Seq), payload, e.RecordedAt)
	if err != nil {
		j.log.Error().Err(err).Str("bus_id", e.BusID.String()).Str("event", e.EventKey).Msg("Failed to record emission")
	}
	return err
}

// ListByBus returns the emissions of one bus ordered by sequence.
func (j *emissionJournal) ListByBus(ctx context.Context, busID uuid.UUID) ([]domain.Emission, error) {
	query := `
		SELECT id, bus_id, event_key, seq, payload, recorded_at
		FROM emissions WHERE bus_id = $1 ORDER BY seq, recorded_at
	`
	rows, err := j.db.pool.Query(ctx, query, busID)
	if err != nil {
		j.log.Error().Err(err).Str("bus_id", busID.String()).Msg("Failed to query emissions")
		return nil, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Emission, error) {
		var (
			e       domain.Emission
			seq     int64
			payload *string
		)
		if err := row.Scan(&e.ID, &e.BusID, &e.EventKey, &seq, &payload, &e.RecordedAt); err != nil {
			return e, err
		}
		e.Seq = uint64(seq)
		if payload != nil {
			e.Payload = []byte(*payload)
		}
		return e, nil
	})
	if err != nil {
		j.log.Error().Err(err).Str("bus_id", busID.String()).Msg("Failed to scan emission rows")
		return nil, err
	}
	return out, nil
}

// CountByBus returns how many emissions were journaled for a bus.
func (j *emissionJournal) CountByBus(ctx context.Context, busID uuid.UUID) (int64, error) {
	var n int64
	err := j.db.pool.QueryRow(ctx, `SELECT count(*) FROM emissions WHERE bus_id = $1`, busID).Scan(&n)
	if err != nil {
		j.log.Error().Err(err).Str("bus_id", busID.String()).Msg("Failed to count emissions")
		return 0, err
	}
	return n, nil
}
