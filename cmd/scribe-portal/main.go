package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	scribeportal "scribe-portal"
	"scribe-portal/internal/api"
	"scribe-portal/internal/auth"
	"scribe-portal/internal/config"
	"scribe-portal/internal/metrics"
	"scribe-portal/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to a .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.Variant, "variant", "", "page variant: starter or transcribe (overrides PAGE_VARIANT)")
	flag.StringVar(&overrides.BackendURL, "backend-url", "", "transcription backend URL (overrides BACKEND_URL)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Str("variant", cfg.PageVariant).Msg("scribe-portal starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auth gate
	gate := auth.NewGate(auth.Config{
		Domain:      cfg.CognitoDomain,
		ClientID:    cfg.CognitoClientID,
		RedirectURI: cfg.RedirectURI,
		LogoutURI:   cfg.LogoutURI,
		Scope:       cfg.Scope,
		Authority:   cfg.Authority,
	}, log)
	if !gate.Config().Enabled() {
		log.Warn().Msg("provider domain or client id missing, login disabled")
	}
	if err := gate.EnableVerification(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to set up id token verification")
	}

	// Transcription backend client
	backendLog := log.With().Str("component", "backend").Logger()
	backend := transcribe.NewClient(cfg.BackendURL, cfg.BackendTimeout, backendLog)

	// HTTP server
	webFS, err := fs.Sub(scribeportal.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open embedded web files")
	}
	httpLog := log.With().Str("component", "http").Logger()
	srv, err := api.NewServer(api.Options{
		Config:    cfg,
		Gate:      gate,
		Backend:   backend,
		WebFS:     webFS,
		Version:   version,
		StartTime: startTime,
		Log:       httpLog,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build http server")
	}
	prometheus.MustRegister(metrics.NewCollector(srv.Stats()))

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribe-portal stopped")
}
