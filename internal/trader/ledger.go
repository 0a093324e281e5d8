package trader

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alpaca-rebalance-bot-go/internal/models"
)

// Ledger is the append-only record of trades executed during one run. Every
// record is also mirrored into the database so trade history survives the
// run; the in-memory slice is what the end-of-run summary renders.
type Ledger struct {
	logger *zap.Logger
	db     *gorm.DB
	trades []models.Trade
}

// NewLedger creates an empty ledger. The db may be nil, in which case
// records are kept in memory only.
func NewLedger(logger *zap.Logger, db *gorm.DB) *Ledger {
	return &Ledger{logger: logger, db: db}
}

// Append records a confirmed trade. Records are never mutated or removed.
func (l *Ledger) Append(trade models.Trade) {
	l.trades = append(l.trades, trade)

	if l.db == nil {
		return
	}
	if err := l.db.Create(&trade).Error; err != nil {
		// The run's in-memory record is authoritative; a failed DB
		// write must not stop trading.
		l.logger.Error("Failed to save trade record to database", zap.Error(err))
	} else {
		l.logger.Info("Successfully saved trade record", zap.Uint("trade_id", trade.ID))
	}
}

// All returns the trades of this run in insertion order.
func (l *Ledger) All() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len returns the number of trades recorded this run.
func (l *Ledger) Len() int {
	return len(l.trades)
}
