package trader

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// printSummary renders the end-of-run report to stdout: price range, final
// position, remaining reserve, every trade of the run and the account
// state. It is emitted on every exit path once a session exists.
func (e *Engine) printSummary() {
	s := e.session
	if s == nil {
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("DAILY SUMMARY FOR %s\n", s.Ticker)
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("Initial Price: $%.2f\n", s.ReferencePrice)
	fmt.Printf("Final Price: $%.2f\n", s.CurrentPrice)
	fmt.Printf("Daily Change: %+.2f%%\n", s.PctChange()*100)
	fmt.Printf("Daily High: $%.2f\n", s.DailyHigh)
	fmt.Printf("Daily Low: $%.2f\n", s.DailyLow)

	if position, err := e.client.GetPosition(s.Ticker); err != nil {
		e.logger.Warn("Could not get final position for summary", zap.Error(err))
	} else {
		fmt.Printf("Final Position: %d shares\n", position.Quantity)
	}
	fmt.Printf("Cash Reserve: $%.2f\n", s.CashReserve)

	trades := e.ledger.All()
	fmt.Printf("\nTrades executed today: %d\n", len(trades))
	for _, t := range trades {
		fmt.Printf("  %s - %s %d @ $%.2f - %s\n",
			time.Unix(t.Timestamp, 0).Format("15:04:05"),
			strings.ToUpper(t.Side), t.Quantity, t.Price, t.Rationale)
	}

	if account, err := e.client.GetAccountInfo(); err != nil {
		e.logger.Warn("Could not get account info for summary", zap.Error(err))
	} else {
		fmt.Printf("\nAccount Value: $%.2f\n", account.PortfolioValue)
		fmt.Printf("Buying Power: $%.2f\n", account.BuyingPower)
	}
}
