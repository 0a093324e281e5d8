package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alpaca-rebalance-bot-go/internal/alpaca"
	"alpaca-rebalance-bot-go/internal/config"
	"alpaca-rebalance-bot-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine is the monitoring loop that drives the rebalancing strategy. It
// owns the session state: the strategy only ever reads it. The loop is the
// single writer; mu exists so the status API can read a consistent snapshot
// from its own goroutine.
type Engine struct {
	logger   *zap.Logger
	cfg      *config.Config
	client   alpaca.ClientInterface
	strategy *RebalanceStrategy

	mu      sync.RWMutex
	ledger  *Ledger
	session *models.Session

	StartTime time.Time
}

// NewEngine creates a new monitoring engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, client alpaca.ClientInterface, db *gorm.DB) *Engine {
	return &Engine{
		logger: logger,
		cfg:    cfg,
		client: client,
		strategy: &RebalanceStrategy{
			GainThreshold: cfg.Trading.GainThreshold,
			LossThreshold: cfg.Trading.LossThreshold,
			SellFraction:  cfg.Trading.SellFraction,
		},
		ledger:    NewLedger(logger, db),
		StartTime: time.Now(),
	}
}

// Snapshot is a point-in-time copy of the engine state for the status API.
type Snapshot struct {
	Session models.Session
	Trades  int
}

// Snapshot returns a copy of the current session state and trade count. It
// reports false until Run has fetched the initial price.
func (e *Engine) Snapshot() (Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return Snapshot{}, false
	}
	return Snapshot{Session: *e.session, Trades: e.ledger.Len()}, true
}

// stop flips the session to not running under the write lock.
func (e *Engine) stop() {
	e.mu.Lock()
	e.session.Running = false
	e.mu.Unlock()
}

// Run starts the monitoring loop for the configured ticker and blocks until
// the context is cancelled or the market closes. The only fatal condition
// is failing to obtain the initial reference price; every later broker
// failure is logged and the iteration skipped. A summary is printed on
// every exit path after initialization.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.cfg.Trading.Ticker
	e.logger.Info("Starting monitoring", zap.String("ticker", ticker))

	if err := e.initialize(ticker); err != nil {
		return fmt.Errorf("failed to initialize monitoring for %s: %w", ticker, err)
	}

	interval := time.Duration(e.cfg.Trading.PollInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	e.logger.Info("Starting monitoring loop", zap.Duration("interval", interval))

	for e.session.Running {
		select {
		case <-ctx.Done():
			e.logger.Info("Stop requested, shutting down monitoring loop")
			e.stop()
		case <-tick.C:
			if !e.marketOpen() {
				e.logger.Info("Market is closed, stopping monitoring")
				e.stop()
				continue
			}
			e.evaluate()
		}
	}

	e.printSummary()
	return nil
}

// initialize fetches the initial price and anchors the session on it. The
// starting position is queried for logging only.
func (e *Engine) initialize(ticker string) error {
	initialPrice, err := e.client.GetCurrentPrice(ticker)
	if err != nil {
		return fmt.Errorf("could not get initial price: %w", err)
	}

	e.mu.Lock()
	e.session = models.NewSession(ticker, initialPrice)
	e.session.Running = true
	e.mu.Unlock()
	e.logger.Info("Initial price set",
		zap.String("ticker", ticker),
		zap.Float64("price", initialPrice))

	if position, err := e.client.GetPosition(ticker); err != nil {
		e.logger.Warn("Could not get initial position", zap.Error(err))
	} else {
		e.logger.Info("Initial position",
			zap.Int64("quantity", position.Quantity),
			zap.Float64("market_value", position.MarketValue))
	}

	return nil
}

// marketOpen reports whether trading should continue. A failed lookup is
// treated as closed: stop rather than trade blind.
func (e *Engine) marketOpen() bool {
	open, err := e.client.IsMarketOpen()
	if err != nil {
		e.logger.Warn("Market status check failed, treating market as closed", zap.Error(err))
		return false
	}
	return open
}

// evaluate runs one iteration: poll the price, update extremes, ask the
// strategy for a decision and execute it. Any fetch failure skips the rest
// of the iteration without touching session state.
func (e *Engine) evaluate() {
	price, err := e.client.GetCurrentPrice(e.session.Ticker)
	if err != nil {
		e.logger.Warn("Price fetch failed, skipping iteration", zap.Error(err))
		return
	}
	e.mu.Lock()
	e.session.ObservePrice(price)
	e.mu.Unlock()

	position, err := e.client.GetPosition(e.session.Ticker)
	if err != nil {
		e.logger.Warn("Position fetch failed, skipping iteration", zap.Error(err))
		return
	}

	e.logger.Info("Tick",
		zap.Float64("price", price),
		zap.String("pct_change", fmt.Sprintf("%+.2f%%", e.session.PctChange()*100)),
		zap.Int64("position", position.Quantity),
		zap.Float64("cash_reserve", e.session.CashReserve))

	decision := e.strategy.Decide(e.session, position)
	if decision.Action == ActionNone {
		return
	}

	e.logger.Info("Rebalancing action", zap.String("rationale", decision.Rationale))
	e.executeTrade(decision)
}

// executeTrade submits the decided order and, only once the broker has
// confirmed it, appends the trade record and applies the decision's reserve
// effect. A failed submission changes nothing; the same conditions will be
// re-evaluated on the next iteration.
func (e *Engine) executeTrade(decision Decision) {
	l := e.logger.With(
		zap.String("ticker", e.session.Ticker),
		zap.String("side", string(decision.Action)),
		zap.Int64("quantity", decision.Quantity),
		zap.Float64("price", e.session.CurrentPrice),
	)

	if e.cfg.Trading.DryRun {
		l.Warn("Dry run enabled. No real order will be submitted.")
	} else {
		if _, err := e.client.SubmitOrder(e.session.Ticker, decision.Quantity, string(decision.Action)); err != nil {
			l.Error("Order submission failed, no state changed", zap.Error(err))
			return
		}
		l.Info("Order submitted")
	}

	e.mu.Lock()
	e.ledger.Append(models.Trade{
		Ticker:       e.session.Ticker,
		Side:         string(decision.Action),
		Quantity:     decision.Quantity,
		Price:        e.session.CurrentPrice,
		Rationale:    decision.Rationale,
		Timestamp:    time.Now().Unix(),
		IsSimulation: e.cfg.Trading.DryRun,
	})

	switch decision.Reserve {
	case SetsReserve:
		e.session.CashReserve = float64(decision.Quantity) * e.session.CurrentPrice
		l.Info("Reserved sale proceeds in cash", zap.Float64("cash_reserve", e.session.CashReserve))
	case ClearsReserve:
		e.session.CashReserve = 0
		l.Info("Used reserved cash for purchase")
	}
	e.mu.Unlock()
}
