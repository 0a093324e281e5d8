package main

import (
	"encoding/json"
	"net/http"
	"time"

	"alpaca-rebalance-bot-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// TradesHandler returns all historical trades.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	var trades []models.Trade
	// Order by most recent first
	if err := h.db.Order("timestamp desc").Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// SummaryDetail holds trade counts for a given period.
type SummaryDetail struct {
	TotalTrades int64 `json:"total_trades"`
	Buys        int64 `json:"buys"`
	Sells       int64 `json:"sells"`
}

// SummaryResponse is the structure for the /api/summary endpoint.
type SummaryResponse struct {
	Since24h SummaryDetail `json:"since_24h"`
	AllTime  SummaryDetail `json:"all_time"`
}

// SummaryHandler aggregates the trade history into per-period counts.
func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	var allTrades []models.Trade
	if err := h.db.Find(&allTrades).Error; err != nil {
		h.log.Error("Failed to get trades for summary", zap.Error(err))
		http.Error(w, "Failed to calculate summary", http.StatusInternalServerError)
		return
	}

	since24h := time.Now().Add(-24 * time.Hour)

	summary24h := SummaryDetail{}
	summaryAllTime := SummaryDetail{}

	for _, trade := range allTrades {
		summaryAllTime.TotalTrades++
		if trade.Side == "buy" {
			summaryAllTime.Buys++
		} else {
			summaryAllTime.Sells++
		}

		if time.Unix(trade.Timestamp, 0).After(since24h) {
			summary24h.TotalTrades++
			if trade.Side == "buy" {
				summary24h.Buys++
			} else {
				summary24h.Sells++
			}
		}
	}

	response := SummaryResponse{
		Since24h: summary24h,
		AllTime:  summaryAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
