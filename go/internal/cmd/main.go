package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/mcdev12/livepoll/go/internal/realtime"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		database *sql.DB
		repos    repositories
	)
	switch config.Storage.Driver {
	case "memory":
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		repos = memoryRepositories()
	default:
		database, err = setupDatabase(ctx, config.Database, config.Storage.ApplySchema)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer database.Close()
		repos = postgresRepositories(database)
	}

	bus, err := setupBus(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up realtime bus")
	}
	if bus != nil {
		defer bus.Close()
	}

	clock := clockwork.NewRealClock()
	cm := realtime.NewConnectionManager(config.connectionConfig(), bus, clock)
	services := setupServices(repos, clock, cm)
	server := setupServer(config, services, database)

	go func() {
		if err := cm.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("connection manager failed")
		}
	}()

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("storage", config.Storage.Driver).
			Str("bus", config.Realtime.Bus).
			Msg("starting livepoll server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(config *Config) {
	if config.Log.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// setupBus returns nil for the local bus
func setupBus(ctx context.Context, config *Config) (realtime.Bus, error) {
	switch config.Realtime.Bus {
	case "nats":
		natsConfig := realtime.DefaultNATSBusConfig()
		natsConfig.URL = config.Realtime.NATS.URL
		natsConfig.Subject = config.Realtime.NATS.Subject
		bus, err := realtime.NewNATSBus(natsConfig)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case "redis":
		bus, err := realtime.NewRedisBus(ctx, realtime.RedisBusConfig{
			Addr:     config.Realtime.Redis.Addr,
			Password: config.Realtime.Redis.Password,
			DB:       config.Realtime.Redis.DB,
			Channel:  config.Realtime.Redis.Channel,
		})
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, nil
	}
}
