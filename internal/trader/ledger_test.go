package trader

import (
	"testing"

	"alpaca-rebalance-bot-go/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedgerDB creates a fresh in-memory database for each test.
func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Trade{}))
	return db
}

func TestLedger_AppendKeepsInsertionOrder(t *testing.T) {
	ledger := NewLedger(zap.NewNop(), nil)

	ledger.Append(models.Trade{Ticker: "AAPL", Side: "sell", Quantity: 5, Price: 105.0})
	ledger.Append(models.Trade{Ticker: "AAPL", Side: "buy", Quantity: 5, Price: 90.0})

	trades := ledger.All()
	assert.Len(t, trades, 2)
	assert.Equal(t, "sell", trades[0].Side)
	assert.Equal(t, "buy", trades[1].Side)
	assert.Equal(t, 2, ledger.Len())
}

func TestLedger_AllReturnsACopy(t *testing.T) {
	ledger := NewLedger(zap.NewNop(), nil)
	ledger.Append(models.Trade{Ticker: "AAPL", Side: "sell", Quantity: 5})

	trades := ledger.All()
	trades[0].Side = "buy"

	assert.Equal(t, "sell", ledger.All()[0].Side)
}

func TestLedger_MirrorsTradesToDatabase(t *testing.T) {
	db := setupLedgerDB(t)
	ledger := NewLedger(zap.NewNop(), db)

	ledger.Append(models.Trade{Ticker: "AAPL", Side: "sell", Quantity: 5, Price: 105.0, Rationale: "gain"})

	var persisted []models.Trade
	assert.NoError(t, db.Find(&persisted).Error)
	assert.Len(t, persisted, 1)
	assert.Equal(t, "AAPL", persisted[0].Ticker)
	assert.Equal(t, int64(5), persisted[0].Quantity)
}

func TestLedger_WorksWithoutDatabase(t *testing.T) {
	ledger := NewLedger(zap.NewNop(), nil)

	ledger.Append(models.Trade{Ticker: "AAPL", Side: "sell", Quantity: 1})

	assert.Equal(t, 1, ledger.Len())
}
