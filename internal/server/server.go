// Package server exposes the agent over HTTP: the stock-analysis run
// endpoint streams AG-UI events as SSE, the market-analysis endpoint
// returns one JSON report.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stockpilot-agent/stockpilot/internal/agui"
	"github.com/stockpilot-agent/stockpilot/internal/config"
	"github.com/stockpilot-agent/stockpilot/internal/marketanalysis"
	"github.com/stockpilot-agent/stockpilot/internal/service"
	"github.com/stockpilot-agent/stockpilot/models"
)

type Server struct {
	cfg    *config.Config
	agent  *service.AgentService
	market *marketanalysis.Workflow
}

func New(cfg *config.Config, agent *service.AgentService, market *marketanalysis.Workflow) *Server {
	return &Server{cfg: cfg, agent: agent, market: market}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/stock-agent", s.handleStockAgent)
	r.Post("/market-analysis", s.handleMarketAnalysis)
	r.Get("/healthz", s.handleHealth)

	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleStockAgent runs the analysis pipeline and streams its events
// as SSE. The request context carries client disconnects into the
// pipeline so an abandoned run stops computing.
func (s *Server) handleStockAgent(w http.ResponseWriter, r *http.Request) {
	var input models.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	encoder := agui.NewSSEEncoder(w)
	if err := s.agent.Run(r.Context(), &input, encoder.Write); err != nil {
		// The stream is already committed; nothing to send but a log.
		log.Printf("stock-agent run: %v", err)
	}
}

func (s *Server) handleMarketAnalysis(w http.ResponseWriter, r *http.Request) {
	var req marketanalysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	report, err := s.market.Run(r.Context(), &req)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
