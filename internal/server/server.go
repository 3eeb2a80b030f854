// Package server exposes the admin HTTP surface: health, positions, budget,
// manual closes, prometheus metrics and a websocket event stream.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/trading/coordinator"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

type Server struct {
	coordinator *coordinator.Coordinator
	ledger      ledger.Ledger
	hub         *Hub
	gatherer    prometheus.Gatherer
	logger      *logger.Logger

	httpServer *http.Server
	listener   net.Listener
}

// New creates the admin server. gatherer may be nil, in which case /metrics is not served.
func New(c *coordinator.Coordinator, l ledger.Ledger, hub *Hub, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	return &Server{
		coordinator: c,
		ledger:      l,
		hub:         hub,
		gatherer:    gatherer,
		logger:      log.Named("server"),
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	router.HandleFunc("/positions/closed", s.handleClosedPositions).Methods(http.MethodGet)
	router.HandleFunc("/positions/{id}/close", s.handleClosePosition).Methods(http.MethodPost)
	router.HandleFunc("/close-all", s.handleCloseAll).Methods(http.MethodPost)
	router.HandleFunc("/budget", s.handleBudget).Methods(http.MethodGet)
	router.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if s.hub != nil {
		router.Handle("/events", s.hub)
	}

	return router
}

// Start listens on address and serves in the background. ":0" picks a free port.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Admin server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Admin server listening", zap.String("addr", listener.Addr().String()))

	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
