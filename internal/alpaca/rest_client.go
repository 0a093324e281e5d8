package alpaca

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"alpaca-rebalance-bot-go/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	OrderTypeMarket = "market"
	OrderSideBuy    = "buy"
	OrderSideSell   = "sell"
	TimeInForceDay  = "day"
)

// AccountInfo is the parsed account state returned by the trading API.
type AccountInfo struct {
	BuyingPower    float64
	Cash           float64
	PortfolioValue float64
	DayTradeCount  int
}

// Position is the parsed position for a single symbol. A symbol with no
// open position is represented by the zero value, never by an error.
type Position struct {
	Quantity             int64
	MarketValue          float64
	AvgEntryPrice        float64
	UnrealizedPnL        float64
	UnrealizedPnLPercent float64
}

// Order is the response from submitting an order.
type Order struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	Status        string `json:"status"`
}

// ClientInterface defines the broker capabilities consumed by the engine.
type ClientInterface interface {
	GetAccountInfo() (*AccountInfo, error)
	GetCurrentPrice(ticker string) (float64, error)
	GetPosition(ticker string) (*Position, error)
	SubmitOrder(ticker string, quantity int64, side string) (*Order, error)
	IsMarketOpen() (bool, error)
}

// Client is a client for the Alpaca REST API. It talks to two hosts: the
// trading API (account, positions, orders, clock) and the market data API
// (latest trades). It implements ClientInterface.
type Client struct {
	trading *resty.Client
	data    *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Alpaca REST API client.
func NewClient(cfg *config.Alpaca, logger *zap.Logger) *Client {
	auth := map[string]string{
		"APCA-API-KEY-ID":     cfg.ApiKey,
		"APCA-API-SECRET-KEY": cfg.SecretKey,
	}

	trading := resty.New().SetBaseURL(cfg.BaseUrl + "/v2").SetHeaders(auth)
	data := resty.New().SetBaseURL(cfg.DataBaseUrl + "/v2").SetHeaders(auth)

	logger.Info("Using Alpaca API", zap.String("base_url", cfg.BaseUrl))

	// Alpaca enforces a per-minute request budget; the limiter keeps us
	// under it across all endpoints.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		trading: trading,
		data:    data,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and
// retry logic. On a non-retryable HTTP error the response is returned
// alongside the error so callers can inspect the status code.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	var lastStatus string
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("path", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}
		if resp != nil {
			lastStatus = resp.Status()
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return resp, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// err is nil when every attempt failed on an HTTP status rather than a
	// transport error; report the last status instead.
	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts, last status %s", maxRetries, lastStatus)
}

// accountResponse mirrors the /account payload. Alpaca encodes monetary
// values as decimal strings.
type accountResponse struct {
	BuyingPower    string `json:"buying_power"`
	Cash           string `json:"cash"`
	PortfolioValue string `json:"portfolio_value"`
	DayTradeCount  int    `json:"daytrade_count"`
}

// GetAccountInfo fetches the current account state. This is also a good
// endpoint to test connectivity and credentials at startup.
func (c *Client) GetAccountInfo() (*AccountInfo, error) {
	req := c.trading.R().SetResult(&accountResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/account", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	raw := resp.Result().(*accountResponse)
	buyingPower, _ := strconv.ParseFloat(raw.BuyingPower, 64)
	cash, _ := strconv.ParseFloat(raw.Cash, 64)
	portfolioValue, _ := strconv.ParseFloat(raw.PortfolioValue, 64)

	return &AccountInfo{
		BuyingPower:    buyingPower,
		Cash:           cash,
		PortfolioValue: portfolioValue,
		DayTradeCount:  raw.DayTradeCount,
	}, nil
}

// latestTradeResponse mirrors the /stocks/{symbol}/trades/latest payload.
type latestTradeResponse struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Price float64 `json:"p"`
	} `json:"trade"`
}

// GetCurrentPrice fetches the price of the latest trade for the ticker.
// Any failure here is transient from the caller's point of view.
func (c *Client) GetCurrentPrice(ticker string) (float64, error) {
	req := c.data.R().SetResult(&latestTradeResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/stocks/%s/trades/latest", ticker), req)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest trade for %s: %w", ticker, err)
	}

	result := resp.Result().(*latestTradeResponse)
	if result.Trade.Price <= 0 {
		return 0, fmt.Errorf("no trade price available for %s", ticker)
	}
	return result.Trade.Price, nil
}

// positionResponse mirrors the /positions/{symbol} payload.
type positionResponse struct {
	Qty           string `json:"qty"`
	MarketValue   string `json:"market_value"`
	AvgEntryPrice string `json:"avg_entry_price"`
	UnrealizedPL  string `json:"unrealized_pl"`
	UnrealizedPLP string `json:"unrealized_plpc"`
}

// GetPosition fetches the open position for the ticker. A 404 means no
// position exists and yields a zero Position, not an error.
func (c *Client) GetPosition(ticker string) (*Position, error) {
	req := c.trading.R().SetResult(&positionResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/positions/"+ticker, req)
	if err != nil {
		if resp != nil && resp.StatusCode() == http.StatusNotFound {
			return &Position{}, nil
		}
		return nil, fmt.Errorf("failed to get position for %s: %w", ticker, err)
	}

	raw := resp.Result().(*positionResponse)
	qty, _ := strconv.ParseInt(raw.Qty, 10, 64)
	marketValue, _ := strconv.ParseFloat(raw.MarketValue, 64)
	avgEntryPrice, _ := strconv.ParseFloat(raw.AvgEntryPrice, 64)
	unrealizedPL, _ := strconv.ParseFloat(raw.UnrealizedPL, 64)
	unrealizedPLP, _ := strconv.ParseFloat(raw.UnrealizedPLP, 64)

	return &Position{
		Quantity:             qty,
		MarketValue:          marketValue,
		AvgEntryPrice:        avgEntryPrice,
		UnrealizedPnL:        unrealizedPL,
		UnrealizedPnLPercent: unrealizedPLP,
	}, nil
}

// SubmitOrder places a market order with day validity.
func (c *Client) SubmitOrder(ticker string, quantity int64, side string) (*Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive, got %d", quantity)
	}

	body := map[string]string{
		"symbol":        ticker,
		"qty":           strconv.FormatInt(quantity, 10),
		"side":          side,
		"type":          OrderTypeMarket,
		"time_in_force": TimeInForceDay,
	}

	req := c.trading.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&Order{})

	ctx := context.Background()

	resp, err := c.doRequest(ctx, "POST", "/orders", req)
	if err != nil {
		c.logger.Error("Failed to submit order after multiple attempts",
			zap.Error(err),
			zap.String("ticker", ticker),
			zap.String("side", side),
		)
		return nil, fmt.Errorf("failed to submit %s order for %s: %w", side, ticker, err)
	}

	result := resp.Result().(*Order)
	c.logger.Info("Successfully submitted order", zap.Any("order", result))
	return result, nil
}

// clockResponse mirrors the /clock payload.
type clockResponse struct {
	IsOpen    bool   `json:"is_open"`
	NextOpen  string `json:"next_open"`
	NextClose string `json:"next_close"`
}

// IsMarketOpen reports whether the market is currently open.
func (c *Client) IsMarketOpen() (bool, error) {
	req := c.trading.R().SetResult(&clockResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/clock", req)
	if err != nil {
		return false, fmt.Errorf("failed to get market clock: %w", err)
	}

	return resp.Result().(*clockResponse).IsOpen, nil
}
