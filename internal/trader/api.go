package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// APIServer provides an HTTP interface for the running engine.
type APIServer struct {
	server *http.Server
	engine *Engine
	logger *zap.Logger
}

// NewAPIServer creates a new APIServer.
func NewAPIServer(engine *Engine, logger *zap.Logger) *APIServer {
	addr := fmt.Sprintf(":%d", engine.cfg.Trading.ApiPort)
	server := &http.Server{
		Addr: addr,
	}

	return &APIServer{
		server: server,
		engine: engine,
		logger: logger.Named("api-server"),
	}
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/health", s.healthHandler)
	s.server.Handler = mux

	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Ticker         string  `json:"ticker"`
		ReferencePrice float64 `json:"reference_price"`
		CurrentPrice   float64 `json:"current_price"`
		DailyHigh      float64 `json:"daily_high"`
		DailyLow       float64 `json:"daily_low"`
		CashReserve    float64 `json:"cash_reserve"`
		Running        bool    `json:"running"`
		Trades         int     `json:"trades"`
		StartTime      string  `json:"start_time"`
		Uptime         string  `json:"uptime"`
	}{
		Ticker:    s.engine.cfg.Trading.Ticker,
		StartTime: s.engine.StartTime.Format(time.RFC3339),
		Uptime:    time.Since(s.engine.StartTime).String(),
	}

	if snap, ok := s.engine.Snapshot(); ok {
		status.ReferencePrice = snap.Session.ReferencePrice
		status.CurrentPrice = snap.Session.CurrentPrice
		status.DailyHigh = snap.Session.DailyHigh
		status.DailyLow = snap.Session.DailyLow
		status.CashReserve = snap.Session.CashReserve
		status.Running = snap.Session.Running
		status.Trades = snap.Trades
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Failed to write status response", zap.Error(err))
		http.Error(w, "Failed to encode status", http.StatusInternalServerError)
	}
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
