package api

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"scribe-portal/internal/auth"
	"scribe-portal/internal/config"
	"scribe-portal/internal/metrics"
	"scribe-portal/internal/transcribe"
)

// Options collects everything the server needs.
type Options struct {
	Config    *config.Config
	Gate      *auth.Gate
	Backend   *transcribe.Client
	WebFS     fs.FS
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

type Server struct {
	http   *http.Server
	portal *PortalHandler
	log    zerolog.Logger
}

// NewServer wires the router, middleware, and handlers.
func NewServer(opts Options) (*Server, error) {
	renderer, err := NewRenderer(opts.WebFS)
	if err != nil {
		return nil, err
	}

	portal := NewPortalHandler(renderer, opts.Gate, opts.Backend, opts.Config, opts.Log)
	authh := NewAuthHandler(opts.Gate, opts.Config.SecureCookies, opts.Log)
	health := NewHealthHandler(opts.Backend, opts.Version, opts.StartTime)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(metrics.InstrumentHandler)

	portal.Routes(r)
	authh.Routes(r)
	r.Get("/api/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         opts.Config.HTTPAddr,
			Handler:      r,
			ReadTimeout:  opts.Config.ReadTimeout,
			WriteTimeout: opts.Config.WriteTimeout,
			IdleTimeout:  opts.Config.IdleTimeout,
		},
		portal: portal,
		log:    opts.Log,
	}, nil
}

// Stats exposes live handler state for the metrics collector.
func (s *Server) Stats() metrics.LiveStats { return s.portal }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
