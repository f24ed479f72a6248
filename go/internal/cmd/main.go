package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/dbconfig"
	"github.com/courtside/commander/go/internal/events/outbox"
	"github.com/courtside/commander/go/internal/gateway"
	"github.com/courtside/commander/go/internal/plan"
	"github.com/courtside/commander/go/internal/roster"
	"github.com/courtside/commander/go/internal/schedule"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := dbconfig.NewConfigFromEnv()

	database, err := setupDatabase(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	pool, err := setupPool(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pgx pool")
	}
	defer pool.Close()

	// Domain wiring: repository -> engine -> apps.
	engine := schedule.NewEngine(config.Rules)
	rosterApp := roster.NewApp(engine)
	planRepo := plan.NewPostgresRepository(pool, config.Rules)
	outboxApp := outbox.NewApp(database)
	planApp := plan.NewApp(planRepo, engine, rosterApp, outboxApp, clockwork.NewRealClock())

	if err := planApp.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap plans")
	}

	// Outbox relay: NATS publisher, poll worker, notify listener.
	nc, err := nats.Connect(config.NATS.URL)
	if err != nil {
		log.Fatal().Err(err).Str("url", config.NATS.URL).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream context")
	}

	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	publisher := outbox.NewNATSPublisher(js, config.NATS.SubjectPrefix, slogger)

	workerCfg := outbox.DefaultConfig()
	workerCfg.PollInterval = config.Outbox.PollInterval
	workerCfg.BatchSize = config.Outbox.BatchSize
	worker := outbox.NewWorker(database, publisher, workerCfg, slogger)
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}
	defer func() {
		if err := worker.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop outbox worker")
		}
	}()

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listenerCfg.FallbackInterval = config.Outbox.FallbackInterval
	listener, err := outbox.NewListener(worker, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox listener")
	}
	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("outbox listener stopped")
		}
	}()

	// Gateway: JSON API + websocket fan-out of bus events.
	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.JetStreamConfig.URL = config.NATS.URL
	gatewayCfg.JetStreamConfig.StreamName = config.NATS.StreamName
	gatewayService, err := gateway.NewService(planApp, gatewayCfg, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}
	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service stopped")
		}
	}()

	server := setupServer(gatewayService, config.Server.Port)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
