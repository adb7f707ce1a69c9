package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// journalMaxConns bounds the pool; journal writes are small and
	// sequential per listener.
	journalMaxConns = 4
	applicationName = "tram-journal"
)

// emissionsSchema is applied statement by statement by EnsureSchema.
var emissionsSchema = []string{
	`CREATE TABLE IF NOT EXISTS emissions (
		id          UUID PRIMARY KEY,
		bus_id      UUID NOT NULL,
		event_key   TEXT NOT NULL,
		seq         BIGINT NOT NULL,
		payload     JSONB,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS emissions_bus_seq_idx ON emissions (bus_id, seq)`,
}

// DB is the journal's connection pool.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewDB opens a journal pool for connString and pings it. The pool is
// labelled with an application name so journal sessions are recognisable in
// pg_stat_activity.
func NewDB(ctx context.Context, connString string, baseLogger *zerolog.Logger) (*DB, error) {
	log := baseLogger.With().Str("component", "postgres").Logger()

	poolConfig, err := journalPoolConfig(connString)
	if err != nil {
		log.Error().Err(err).Msg("Invalid journal connection string")
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create journal pool")
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		log.Error().Err(err).Str("host", poolConfig.ConnConfig.Host).Msg("Journal database unreachable")
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Journal pool ready")
	return &DB{pool: pool, log: log}, nil
}

// journalPoolConfig parses connString and applies the journal's pool limits.
// An explicit application_name in connString wins.
func journalPoolConfig(connString string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = journalMaxConns
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return cfg, nil
}

// EnsureSchema creates the emissions table and its index if missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range emissionsSchema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			db.log.Error().Err(err).Msg("Failed to create emissions schema")
			return err
		}
	}
	db.log.Debug().Int("statements", len(emissionsSchema)).Msg("Emissions schema ensured")
	return nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.log.Info().Msg("Closing journal pool")
	db.pool.Close()
}
