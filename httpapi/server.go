// Package httpapi exposes the governed client over a small REST surface
// so other processes can share one request pipeline per site identity.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ryanlong1004/lucida-flow/constant"
	"github.com/ryanlong1004/lucida-flow/ctxutil"
	"github.com/ryanlong1004/lucida-flow/log"
	"github.com/ryanlong1004/lucida-flow/lucida"
)

type Server struct {
	client *lucida.Client
	logger zerolog.Logger
	srv    *http.Server
}

func New(client *lucida.Client, listenAddr string, logger zerolog.Logger) *Server {
	s := &Server{client: client, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/services", s.handleServices)
	r.Get("/stats", s.handleStats)
	r.Post("/search", s.handleSearch)
	r.Post("/info", s.handleInfo)
	r.Post("/download", s.handleDownload)

	s.srv = &http.Server{
		Addr:        listenAddr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is canceled, then drains in-flight requests.
// Download requests can legitimately take minutes, hence the generous
// drain window.
func (s *Server) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info().Str("listen_addr", s.srv.Addr).Msg("HTTP API listening")
		if err := s.srv.ListenAndServe(); nil != err && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := ctxutil.WithDelayedTimeout(egCtx, 30*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); nil != err {
			s.logger.Warn().Err(err).Msg("HTTP server shutdown was not clean")
			return err
		}
		return nil
	})
	return eg.Wait()
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); nil != rec {
				s.logger.Error().Func(log.Panic(rec)).Str("path", r.URL.Path).Msg("Handler panicked")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "lucida-flow",
		"version": constant.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"services": lucida.Services()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.client.Stats())
}
