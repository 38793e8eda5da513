// Package server exposes the form-fill engine over HTTP: a blocking
// fill endpoint, a server-sent-events progress stream, screenshot
// retrieval, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mendrika-alma/formfill/pkg/engine"
	"github.com/mendrika-alma/formfill/pkg/progress"
	"github.com/mendrika-alma/formfill/pkg/schema"
	"github.com/mendrika-alma/formfill/pkg/store"
)

// RunStarter is the slice of the engine runner the server needs.
type RunStarter interface {
	Start(ctx context.Context, rec *schema.Record) (*schema.Report, error)
	Cancel() bool
}

// Server wires the HTTP surface to the engine runner, progress channel,
// and screenshot store.
type Server struct {
	runner  RunStarter
	channel *progress.Channel
	shots   store.Store
	router  *mux.Router
	logger  *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates the server and registers its routes.
func New(runner RunStarter, channel *progress.Channel, shots store.Store, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		channel: channel,
		shots:   shots,
		router:  mux.NewRouter(),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/fill-form", s.handleFillForm).Methods("POST")
	s.router.HandleFunc("/api/fill-form/cancel", s.handleCancel).Methods("POST")
	s.router.HandleFunc("/api/progress/stream", s.handleProgressStream).Methods("GET")
	s.router.HandleFunc("/api/screenshots/{id}", s.handleScreenshot).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Printf("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	s.logger.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleFillForm starts a run and blocks until the report is ready. A
// concurrent request while a run is active is rejected, never interleaved.
func (s *Server) handleFillForm(w http.ResponseWriter, r *http.Request) {
	var rec schema.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logger.Printf("form fill requested")
	// The run outlives request cancellation: observers were told it
	// started and must still receive a terminal report.
	report, err := s.runner.Start(context.WithoutCancel(r.Context()), &rec)
	if err != nil {
		if errors.Is(err, engine.ErrRunActive) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Printf("form fill finished: success=%t filled=%d/%d errors=%d",
		report.Success, report.FilledFields, report.TotalFields, len(report.Errors))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !s.runner.Cancel() {
		writeError(w, http.StatusConflict, errors.New("no run in progress"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleProgressStream streams progress events as server-sent events.
// Clients may connect or disconnect at any point without affecting runs;
// events published before the connection are not replayed.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.channel.Subscribe()
	defer s.channel.Unsubscribe(sub)
	s.logger.Printf("progress observer connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Printf("progress observer disconnected")
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, err := s.shots.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
