package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/engine"
	"github.com/doodleduel/client/internal/session"
	"github.com/doodleduel/client/internal/statehttp"
	"github.com/doodleduel/client/internal/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := getEnv("CLIENT_CONFIG", "config.yaml")
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("server_url", cfg.ServerURL).
		Str("http_addr", cfg.HTTPAddr).
		Msg("starting game client")

	sessions, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}

	channel := transport.NewWSChannel(cfg.ServerURL, transport.DefaultConfig())

	eng, err := engine.New(channel, sessions, engine.Options{
		CallTimeout: cfg.callTimeout(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := channel.Connect(ctx); err != nil {
		// The channel redials on its own once up; only the very first
		// dial failing is fatal, since it usually means a bad URL.
		log.Fatal().Err(err).Msg("failed to connect")
	}

	go eng.Run(ctx)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      statehttp.NewHandler(eng).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("state endpoint listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("state endpoint failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("state endpoint shutdown failed")
	}

	cancel()
	channel.Close()
	log.Info().Msg("game client shutdown complete")
}
