package trader

import (
	"testing"

	"alpaca-rebalance-bot-go/internal/alpaca"
	"alpaca-rebalance-bot-go/internal/models"
	"github.com/stretchr/testify/assert"
)

func newTestStrategy() *RebalanceStrategy {
	return &RebalanceStrategy{
		GainThreshold: 0.05,
		LossThreshold: 0.10,
		SellFraction:  0.05,
	}
}

func TestDecide_GainTriggersSell(t *testing.T) {
	// Arrange
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(105.00) // +5%
	position := &alpaca.Position{Quantity: 100}

	// Act
	decision := strategy.Decide(session, position)

	// Assert
	assert.Equal(t, ActionSell, decision.Action)
	assert.Equal(t, int64(5), decision.Quantity)
	assert.Equal(t, SetsReserve, decision.Reserve)
	assert.Contains(t, decision.Rationale, "5%")
}

func TestDecide_SellsAtLeastOneShare(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(106.00)

	// 5% of 10 shares floors to 0; the minimum of one share applies.
	decision := strategy.Decide(session, &alpaca.Position{Quantity: 10})

	assert.Equal(t, ActionSell, decision.Action)
	assert.Equal(t, int64(1), decision.Quantity)
}

func TestDecide_GainGuardedByZeroPosition(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(105.00)

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 0})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_GainGuardedByOutstandingReserve(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(107.00)
	session.CashReserve = 525.00

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 100})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_LossBelowThresholdIsNoop(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(94.50) // -5.5%, threshold is -10%
	session.CashReserve = 525.00

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 95})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_LossRedeploysReserve(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(90.00) // -10%
	session.CashReserve = 525.00

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 95})

	assert.Equal(t, ActionBuy, decision.Action)
	assert.Equal(t, int64(5), decision.Quantity) // floor(525 / 90)
	assert.Equal(t, ClearsReserve, decision.Reserve)
	assert.Contains(t, decision.Rationale, "10%")
}

func TestDecide_LossWithoutReserveIsNoop(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(90.00)

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 100})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_ReserveTooSmallForOneShare(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(90.00)
	session.CashReserve = 50.00 // floor(50 / 90) == 0

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 100})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_UnusableReferencePrice(t *testing.T) {
	strategy := newTestStrategy()
	session := &models.Session{Ticker: "AAPL", CurrentPrice: 105.00}

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 100})

	assert.Equal(t, ActionNone, decision.Action)
}

func TestDecide_IsIdempotent(t *testing.T) {
	strategy := newTestStrategy()
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(105.00)
	position := &alpaca.Position{Quantity: 100}

	first := strategy.Decide(session, position)
	second := strategy.Decide(session, position)

	assert.Equal(t, first, second)
}

func TestDecide_IndependentSellFraction(t *testing.T) {
	// The gain threshold decides when to sell, the sell fraction how
	// much; they do not have to match.
	strategy := &RebalanceStrategy{
		GainThreshold: 0.05,
		LossThreshold: 0.10,
		SellFraction:  0.10,
	}
	session := models.NewSession("AAPL", 100)
	session.ObservePrice(105.00)

	decision := strategy.Decide(session, &alpaca.Position{Quantity: 100})

	assert.Equal(t, ActionSell, decision.Action)
	assert.Equal(t, int64(10), decision.Quantity)
}
