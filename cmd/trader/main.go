package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"alpaca-rebalance-bot-go/internal/alpaca"
	"alpaca-rebalance-bot-go/internal/config"
	"alpaca-rebalance-bot-go/internal/database"
	"alpaca-rebalance-bot-go/internal/logger"
	"alpaca-rebalance-bot-go/internal/trader"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded", zap.String("ticker", cfg.Trading.Ticker))

	if cfg.Trading.Ticker == "" {
		log.Fatal("No ticker configured, set trading.ticker in configs/config.yml")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize Alpaca REST client and verify credentials
	client := alpaca.NewClient(&cfg.Alpaca, log)
	account, err := client.GetAccountInfo()
	if err != nil {
		log.Fatal("Failed to connect to Alpaca API", zap.Error(err))
	}
	log.Info("Successfully connected to Alpaca API.",
		zap.Float64("portfolio_value", account.PortfolioValue),
		zap.Float64("buying_power", account.BuyingPower))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the monitoring engine
	engine := trader.NewEngine(log, &cfg, client, db)

	if cfg.Trading.ApiPort > 0 {
		apiServer := trader.NewAPIServer(engine, log)
		apiServer.Start()
		defer apiServer.Stop(context.Background())
	}

	if err := engine.Run(ctx); err != nil {
		log.Fatal("Monitoring run failed", zap.Error(err))
	}

	log.Info("Bot has been shut down.")
}
