package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bracketpool/calcutta/go/internal/auction/watcher"
)

func main() {
	// load .env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// configure zerolog console output and level
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var (
		serverURL    = flag.String("server", envOr("AUCTION_SERVER_URL", "http://localhost:8080"), "auction server base URL")
		token        = flag.String("token", os.Getenv("AUCTION_TOKEN"), "session token for the sold action")
		logPath      = flag.String("log", envOr("AUCTION_EVENT_LOG", "auction-events.json"), "event log file path")
		pollInterval = flag.Duration("poll", watcher.DefaultPollInterval, "poll interval")
		warnInterval = flag.Duration("warn", watcher.DefaultWarnInterval, "warning interval")
	)
	flag.Parse()

	eventLog, err := watcher.OpenEventLog(*logPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *logPath).Msg("open event log")
	}

	client := watcher.NewClient(*serverURL, *token)
	w := watcher.New(client, clockwork.NewRealClock(), eventLog,
		watcher.WithPollInterval(*pollInterval),
		watcher.WithWarnInterval(*warnInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("server", *serverURL).Msg("starting auction watcher")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("watcher exited unexpectedly")
	}
	log.Info().Msg("watcher shut down")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
