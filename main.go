package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/qwertysam/solar-colony/internal/config"
	"github.com/qwertysam/solar-colony/internal/logging"
	"github.com/qwertysam/solar-colony/internal/storage"
	"github.com/qwertysam/solar-colony/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (JSON, YAML or TOML)")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Loading config failed")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to info level")
	}

	backend, err := storage.NewBackend(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Opening archive failed")
	}
	if err := backend.Init(); err != nil {
		log.Fatal().Err(err).Msg("Initialising archive failed")
	}

	sc, err := server.NewServerContext(cfg, log, backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Creating server failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sc.Manager.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      sc.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Solar colony server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	// The loop ends every game on the way out; wait for it before flushing
	// the archive
	<-sc.Manager.Done()
	if err := sc.Close(); err != nil {
		log.Error().Err(err).Msg("Closing archive failed")
	}

	log.Info().Msg("Server stopped")
}
