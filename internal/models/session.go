package models

// Session tracks the state of one monitoring run for a single ticker.
// It is owned and mutated exclusively by the trading engine; the strategy
// only reads it.
type Session struct {
	Ticker string

	// ReferencePrice is the price observed at session start. It is the
	// baseline for all percentage-change computations and never changes
	// once set.
	ReferencePrice float64
	CurrentPrice   float64

	// DailyHigh never decreases and DailyLow never increases over the
	// lifetime of the session.
	DailyHigh float64
	DailyLow  float64

	// CashReserve is the proceeds of the last gain-triggered sell, held
	// out of the market. Zero means no reserve is outstanding; at most
	// one reserve exists at a time.
	CashReserve float64

	Running bool
}

// NewSession creates a session anchored at the given initial price.
func NewSession(ticker string, initialPrice float64) *Session {
	return &Session{
		Ticker:         ticker,
		ReferencePrice: initialPrice,
		CurrentPrice:   initialPrice,
		DailyHigh:      initialPrice,
		DailyLow:       initialPrice,
	}
}

// ObservePrice records a fresh quote and widens the daily extremes.
func (s *Session) ObservePrice(price float64) {
	s.CurrentPrice = price
	if price > s.DailyHigh {
		s.DailyHigh = price
	}
	if price < s.DailyLow {
		s.DailyLow = price
	}
}

// PctChange returns the change of the current price relative to the
// reference price. It returns 0 if the reference price is not usable.
func (s *Session) PctChange() float64 {
	if s.ReferencePrice <= 0 {
		return 0
	}
	return (s.CurrentPrice - s.ReferencePrice) / s.ReferencePrice
}
