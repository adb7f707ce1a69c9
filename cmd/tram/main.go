package main

import (
	"context"
	"fmt"
	"os"

	"tram/internal/adapters/eventbus"
	"tram/internal/adapters/postgres"
	"tram/internal/core/ports"
	"tram/internal/shared/config"
	"tram/internal/shared/logger"

	"github.com/sourcegraph/conc"
)

// Lifecycle event keys of the application bus.
const (
	EventStart = "start"
	EventReady = "ready"
	EventTick  = "tick"
	EventStop  = "stop"
)

const tickWorkers = 4

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Uint64("emit_limit", cfg.EmitLimit).
		Bool("journal", cfg.DatabaseURL != "").
		Msg("Configuration loaded")

	// 3. Initialize the bus
	bus := eventbus.Bound[string, int](cfg.EmitLimit, eventbus.WithLogger(&baseLogger))
	log := baseLogger.With().Str("component", "main").Str("bus_id", bus.ID().String()).Logger()

	// 4. Optional emission journal
	ctx := context.Background()
	if cfg.DatabaseURL != "" {
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare emissions schema")
		}

		journal := postgres.NewEmissionJournal(db, &baseLogger)
		for _, event := range []string{EventStart, EventReady, EventTick, EventStop} {
			listener := eventbus.JournalListener[string, int](ctx, event, bus.ID(), journal, &baseLogger)
			if err := bus.On(event, listener); err != nil {
				log.Fatal().Err(err).Str("event", event).Msg("Failed to register journal listener")
			}
		}
	}

	// 5. Lifecycle listeners
	mustOn := func(event string, l ports.Listener[string, int]) {
		if err := bus.On(event, l); err != nil {
			log.Fatal().Err(err).Str("event", event).Msg("Failed to register listener")
		}
	}
	mustOn(EventStart, func(inner ports.EventBus[string, int], _ *int) {
		log.Info().Uint64("seq", inner.EventCount()).Msg("Starting")
		if err := inner.Emit(EventReady); err != nil {
			log.Warn().Err(err).Msg("Could not announce readiness")
		}
	})
	mustOn(EventReady, func(inner ports.EventBus[string, int], _ *int) {
		log.Info().Uint64("seq", inner.EventCount()).Msg("Ready")
	})
	mustOn(EventTick, func(_ ports.EventBus[string, int], worker *int) {
		log.Debug().Int("worker", *worker).Msg("Tick")
	})
	mustOn(EventStop, func(inner ports.EventBus[string, int], _ *int) {
		log.Info().Uint64("seq", inner.EventCount()).Msg("Stopping")
	})

	if err := bus.Emit(EventStart); err != nil {
		log.Fatal().Err(err).Msg("Failed to emit start")
	}

	// 6. Emit from several goroutines through cloned handles
	var wg conc.WaitGroup
	for w := 0; w < tickWorkers; w++ {
		worker := w
		handle := bus.Clone()
		wg.Go(func() {
			if err := handle.EmitWithValue(EventTick, &worker); err != nil {
				log.Warn().Err(err).Int("worker", worker).Msg("Tick not delivered")
			}
		})
	}
	wg.Wait()

	if err := bus.Emit(EventStop); err != nil {
		log.Warn().Err(err).Msg("Stop not delivered")
	}

	log.Info().
		Uint64("event_count", bus.EventCount()).
		Bool("disconnected", bus.Disconnected()).
		Msg("Bus drained")
}
