package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dnldd/breakout/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// tradeRetcodeDone is the broker return code for a completed trade request.
	tradeRetcodeDone = 10009
	// defaultTimeout is the default http client timeout.
	defaultTimeout = time.Second * 10
	// maxFetchRetries is the maximum number of retries for idempotent market data requests.
	maxFetchRetries = 3
)

// BridgeConfig represents the configuration for the broker bridge client.
type BridgeConfig struct {
	// BaseURL is the broker bridge base url.
	BaseURL string
	// Token is the broker bridge access token.
	Token string
	// Timeout is the http client timeout.
	Timeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// BridgeClient represents an http client for a broker terminal bridge, exposing
// market data, account details and order submission.
type BridgeClient struct {
	cfg    *BridgeConfig
	httpc  *http.Client
	buf    *bytes.Buffer
	bufMtx sync.Mutex
}

// Ensure the BridgeClient implements the Broker interface.
var _ shared.Broker = (*BridgeClient)(nil)

// NewBridgeClient instantiates a new broker bridge client.
func NewBridgeClient(cfg *BridgeConfig) (*BridgeClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("bridge base url cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("bridge logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &BridgeClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: timeout},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *BridgeClient) formURL(path string, params string) string {
	c.bufMtx.Lock()
	defer c.bufMtx.Unlock()

	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	if params != "" {
		c.buf.WriteString("?")
		c.buf.WriteString(params)
	}
	formed := c.buf.String()
	c.buf.Reset()

	return formed
}

// brokerTimeframe returns the broker notation of the provided timeframe.
func brokerTimeframe(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "M1", nil
	case shared.FiveMinute:
		return "M5", nil
	case shared.FifteenMinute:
		return "M15", nil
	case shared.ThirtyMinute:
		return "M30", nil
	case shared.OneHour:
		return "H1", nil
	case shared.FourHour:
		return "H4", nil
	case shared.OneDay:
		return "D1", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// do performs the provided request and returns the response body. Non 2xx responses
// are returned as errors.
func (c *BridgeClient) do(ctx context.Context, method string, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode,
			gjson.GetBytes(respBody, "error").String())
	}

	return respBody, nil
}

// Connect authenticates with the broker bridge.
func (c *BridgeClient) Connect(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, c.formURL("/account", ""), nil)
	if err != nil {
		return fmt.Errorf("authenticating with broker bridge: %w", err)
	}

	login := gjson.GetBytes(body, "login").String()
	server := gjson.GetBytes(body, "server").String()
	c.cfg.Logger.Info().Msgf("connected to broker bridge as %s@%s", login, server)

	return nil
}

// FetchCandles fetches the count most recent candles for the provided market and timeframe.
// Requests are retried with backoff since they are idempotent.
func (c *BridgeClient) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, count int) ([]shared.Candlestick, error) {
	tf, err := brokerTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("timeframe", tf)
	params.Add("start", "0")
	params.Add("count", strconv.Itoa(count))
	formedURL := c.formURL("/rates", params.Encode())

	var candles []shared.Candlestick
	op := func() error {
		body, err := c.do(ctx, http.MethodGet, formedURL, nil)
		if err != nil {
			return fmt.Errorf("fetching %s candles for %s: %w", timeframe.String(), market, err)
		}

		data := gjson.ParseBytes(body).Array()
		if len(data) == 0 {
			return backoff.Permanent(fmt.Errorf("%s %s candles: %w", market, timeframe.String(),
				shared.ErrNoDataAvailable))
		}

		candles, err = shared.ParseCandlesticks(data, market, timeframe)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parsing %s candles: %w", market, err))
		}

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.cfg.Logger.Warn().Err(err).Msgf("retrying %s candle fetch in %s", market, wait)
	}

	err = backoff.RetryNotify(op, policy, notify)
	if err != nil {
		return nil, err
	}

	return candles, nil
}

// orderPayload represents the order submission payload.
type orderPayload struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	Deviation  int     `json:"deviation"`
	Magic      int     `json:"magic"`
	Comment    string  `json:"comment"`
	TypeTime   string  `json:"type_time"`
	Filling    string  `json:"type_filling"`
}

// SubmitOrder submits the provided order request as a market deal. Orders are never
// retried to avoid duplicate fills.
func (c *BridgeClient) SubmitOrder(ctx context.Context, req shared.OrderRequest) (shared.OrderResult, error) {
	err := req.Direction.Validate()
	if err != nil {
		return shared.OrderResult{}, err
	}

	payload := orderPayload{
		ID:         req.ID,
		Symbol:     req.Market,
		Type:       req.Direction.String(),
		Volume:     req.Volume,
		Price:      req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Deviation:  req.Deviation,
		Magic:      req.Magic,
		Comment:    req.Tag,
		TypeTime:   "gtc",
		Filling:    "ioc",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return shared.OrderResult{}, fmt.Errorf("encoding order payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.formURL("/orders", ""), body)
	if err != nil {
		return shared.OrderResult{}, fmt.Errorf("submitting %s order for %s: %w",
			req.Direction.String(), req.Market, err)
	}

	retcode := int(gjson.GetBytes(resp, "retcode").Int())
	result := shared.OrderResult{
		Success:    retcode == tradeRetcodeDone,
		ReturnCode: retcode,
		Message:    gjson.GetBytes(resp, "comment").String(),
	}

	return result, nil
}

// AccountBalance returns the current account balance.
func (c *BridgeClient) AccountBalance(ctx context.Context) (float64, error) {
	body, err := c.do(ctx, http.MethodGet, c.formURL("/account", ""), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAccountInfoUnavailable, err)
	}

	balance := gjson.GetBytes(body, "balance")
	if !balance.Exists() {
		return 0, fmt.Errorf("%w: no balance in account response", shared.ErrAccountInfoUnavailable)
	}

	return balance.Float(), nil
}

// SymbolInfo returns broker metadata for the provided market.
func (c *BridgeClient) SymbolInfo(ctx context.Context, market string) (shared.SymbolInfo, error) {
	body, err := c.do(ctx, http.MethodGet, c.formURL("/symbols/"+url.PathEscape(market), ""), nil)
	if err != nil {
		return shared.SymbolInfo{}, fmt.Errorf("fetching %s symbol info: %w", market, err)
	}

	digits := gjson.GetBytes(body, "digits")
	if !digits.Exists() {
		return shared.SymbolInfo{}, fmt.Errorf("no digits in %s symbol info", market)
	}

	return shared.SymbolInfo{
		Name:   market,
		Digits: int(digits.Int()),
	}, nil
}

// Symbols returns the names of all symbols offered by the broker.
func (c *BridgeClient) Symbols(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.formURL("/symbols", ""), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching symbols: %w", err)
	}

	data := gjson.ParseBytes(body).Array()
	symbols := make([]string, 0, len(data))
	for idx := range data {
		name := data[idx].Get("name").String()
		if name == "" {
			continue
		}

		symbols = append(symbols, name)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols: %w", shared.ErrNoDataAvailable)
	}

	return symbols, nil
}

// SelectSymbol enables the provided symbol for market data and trading.
func (c *BridgeClient) SelectSymbol(ctx context.Context, market string) error {
	path := "/symbols/" + url.PathEscape(market) + "/select"
	_, err := c.do(ctx, http.MethodPost, c.formURL(path, ""), nil)
	if err != nil {
		return fmt.Errorf("selecting symbol %s: %w", market, err)
	}

	return nil
}

// Close releases the broker bridge connection.
func (c *BridgeClient) Close() error {
	c.httpc.CloseIdleConnections()
	c.cfg.Logger.Info().Msg("broker bridge connection closed")

	return nil
}
