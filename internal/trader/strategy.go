package trader

import (
	"fmt"

	"alpaca-rebalance-bot-go/internal/alpaca"
	"alpaca-rebalance-bot-go/internal/models"
)

// Action is the trade direction of a decision.
type Action string

const (
	ActionNone Action = "none"
	ActionBuy  Action = alpaca.OrderSideBuy
	ActionSell Action = alpaca.OrderSideSell
)

// ReserveEffect tells the engine how to update the session's cash reserve
// after the decided trade has been confirmed by the broker.
type ReserveEffect int

const (
	ReserveNone ReserveEffect = iota
	// SetsReserve: the sale proceeds become the new cash reserve.
	SetsReserve
	// ClearsReserve: the reserve was spent on the buy and drops to zero.
	ClearsReserve
)

// Decision is the outcome of one strategy evaluation. It is produced once
// per loop iteration and consumed immediately.
type Decision struct {
	Action    Action
	Quantity  int64
	Rationale string
	Reserve   ReserveEffect
}

// RebalanceStrategy implements the sell-high, buy-low rebalancing rule:
// when the price has gained GainThreshold over the session reference price
// and no reserve is outstanding, sell SellFraction of the position and park
// the proceeds; when the price has lost LossThreshold, redeploy the parked
// cash. GainThreshold and SellFraction are independent parameters even
// though they default to the same value.
type RebalanceStrategy struct {
	GainThreshold float64
	LossThreshold float64
	SellFraction  float64
}

// Decide evaluates the session against the current position and returns the
// trade to make, if any. It never mutates the session; reserve bookkeeping
// happens in the engine once the broker confirms the order. At most one
// branch fires per call: the gain branch is checked first, and the loss
// branch only runs when the gain branch did not fire.
func (s *RebalanceStrategy) Decide(session *models.Session, position *alpaca.Position) Decision {
	if session.ReferencePrice <= 0 || session.CurrentPrice <= 0 {
		return Decision{Action: ActionNone}
	}

	pctChange := session.PctChange()

	if pctChange >= s.GainThreshold && session.CashReserve == 0 && position.Quantity > 0 {
		// Sell a fixed fraction of the position, at least one share.
		// Larger positions shed proportionally more shares per gain
		// event; that ratchet is intentional.
		sellQty := int64(float64(position.Quantity) * s.SellFraction)
		if sellQty < 1 {
			sellQty = 1
		}
		return Decision{
			Action:   ActionSell,
			Quantity: sellQty,
			Rationale: fmt.Sprintf("%.0f%% gain reached (%+.2f%%), removing %.0f%% of position",
				s.GainThreshold*100, pctChange*100, s.SellFraction*100),
			Reserve: SetsReserve,
		}
	}

	if pctChange <= -s.LossThreshold && session.CashReserve > 0 {
		buyQty := int64(session.CashReserve / session.CurrentPrice)
		if buyQty > 0 {
			return Decision{
				Action:   ActionBuy,
				Quantity: buyQty,
				Rationale: fmt.Sprintf("%.0f%% loss reached (%+.2f%%), investing reserved cash",
					s.LossThreshold*100, pctChange*100),
				Reserve: ClearsReserve,
			}
		}
	}

	return Decision{Action: ActionNone}
}
