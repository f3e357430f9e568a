// Package ops serves health, readiness, metrics and state inspection
// endpoints next to the page responder.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/uplink"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/options"
)

// Source is what the ops endpoints inspect. Every method must be safe to
// call from HTTP handler goroutines.
type Source interface {
	Ready() bool
	Snapshot() *core.Snapshot
	UplinkStatus() uplink.Status
}

type Server struct {
	server *http.Server
}

// NewServer builds the router. Metrics are read from gatherer.
func NewServer(opts *options.HttpOptions, src Source, gatherer prometheus.Gatherer) *Server {
	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      NewRouter(src, gatherer),
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
	}
}

// NewRouter returns the ops routes.
func NewRouter(src Source, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Readiness follows the page responder listener.
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !src.Ready() {
			http.Error(w, "responder not listening", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, newSnapshotView(src.Snapshot()))
	}).Methods(http.MethodGet)

	r.HandleFunc("/uplink", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, src.UplinkStatus())
	}).Methods(http.MethodGet)

	return r
}

type snapshotView struct {
	*core.Snapshot
	DirectionCode int `json:"directionCode"`
}

func newSnapshotView(s *core.Snapshot) snapshotView {
	return snapshotView{Snapshot: s, DirectionCode: s.Direction.Code()}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode ops response")
	}
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting ops server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
