package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bracketpool/calcutta/go/internal/auction/gateway"
	"github.com/bracketpool/calcutta/go/internal/auction/outbox"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	scheme, err := payoutScheme(config)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid payout scheme")
	}

	database, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("setup database")
	}
	defer database.Close()

	services := setupServices(database, config.Auction.WarningInterval, scheme)
	server := setupServer(config, services)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background loops: websocket fan-out, lapse sweeper, and (when NATS is
	// configured) the outbox relay and event consumer.
	go services.ConnectionManager.Start(ctx)
	go func() {
		if err := services.Sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("sweeper exited")
		}
	}()

	if config.NATS.URL != "" {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = config.NATS.URL
		publisher, err := outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create JetStream publisher")
		}
		defer publisher.Close()

		worker := outbox.NewWorker(database, publisher, outbox.DefaultConfig())
		if err := worker.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("start outbox worker")
		}
		defer worker.Stop()

		consumerCfg := gateway.DefaultJetStreamConsumerConfig()
		consumerCfg.URL = config.NATS.URL
		consumer, err := gateway.NewEventConsumer(services.ConnectionManager, consumerCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create event consumer")
		}
		defer consumer.Stop()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer exited")
			}
		}()
	} else {
		log.Warn().Msg("NATS not configured, live event feed disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("auction server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
		log.Info().Msg("graceful shutdown complete")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}
}
