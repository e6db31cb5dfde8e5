// Package rpc exposes the read-only telemetry surface consumed by
// external dashboards: ring usage, feed rate, meltdown state and journal,
// and market store rankings.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	"github.com/SJParthi/IndianFutureBillionaire/internal/sink"
	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/httplib/healthcheck"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

const defaultRankingLimit = 10

// Server is the HTTP telemetry server. All handlers are read-only; the
// write path of the core is never touched from here.
type Server struct {
	httpServer *http.Server
	logger     logger.Interface

	tracker *telemetry.Tracker
	usage   telemetry.UsageSource
	breaker *breaker.Breaker
	store   *sink.MarketStore
}

// NewServer builds the telemetry server on the given port.
func NewServer(
	port int,
	tracker *telemetry.Tracker,
	usage telemetry.UsageSource,
	brk *breaker.Breaker,
	store *sink.MarketStore,
	log logger.Interface,
) *Server {
	s := &Server{
		logger:  log,
		tracker: tracker,
		usage:   usage,
		breaker: brk,
		store:   store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.HandleFunc("/meltdown/logs", s.handleMeltdownLogs)
	mux.HandleFunc("/market/top-gainers", s.handleTopGainers)
	mux.HandleFunc("/market/top-losers", s.handleTopLosers)
	mux.HandleFunc("/market/top-volume", s.handleTopVolume)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: healthcheck.HealthCheck{}.Handler(mux),
	}

	return s
}

// Start serves until Stop is called. Blocks; run it on its own goroutine.
func (s *Server) Start() error {
	s.logger.Info("telemetry server started", logger.Field{
		Key:   "addr",
		Value: s.httpServer.Addr,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("telemetry server stopping")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot(s.usage.Usage(), s.breaker.IsActive())
	s.writeJSON(w, snap)
}

func (s *Server) handleMeltdownLogs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"meltdownActive": s.breaker.IsActive(),
		"logs":           s.tracker.RecentJournal(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleTopGainers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.TopGainers(rankingLimit(r)))
}

func (s *Server) handleTopLosers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.TopLosers(rankingLimit(r)))
}

func (s *Server) handleTopVolume(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.TopByVolume(rankingLimit(r)))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, logger.Field{
			Key:   "action",
			Value: "encode_response",
		})
	}
}

func rankingLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultRankingLimit
}
