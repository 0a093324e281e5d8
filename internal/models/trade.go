package models

import "gorm.io/gorm"

// Trade represents a completed trade record in the database.
type Trade struct {
	gorm.Model
	Ticker       string  `json:"ticker"`
	Side         string  `json:"side"` // "buy" or "sell"
	Quantity     int64   `json:"quantity"`
	Price        float64 `json:"price"`
	Rationale    string  `json:"rationale"`
	Timestamp    int64   `json:"timestamp"`
	IsSimulation bool    `json:"is_simulation"`
}
