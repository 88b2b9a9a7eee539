package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

// ErrAPI is matched by every *APIError.
var ErrAPI = errors.New("deriv api error")

// APIError is the error payload of a Deriv response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deriv: %s: %s", e.Code, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// DerivConfig configures the Deriv ticks_history client.
type DerivConfig struct {
	URL        string
	AppID      string
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is the first backoff step; it doubles on each retry.
	RetryDelay time.Duration
}

func (c *DerivConfig) defaults() {
	if c.URL == "" {
		c.URL = "wss://ws.derivws.com/websockets/v3"
	}
	if c.AppID == "" {
		c.AppID = "1089"
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Second
	}
}

// DerivFetcher implements Fetcher over the Deriv websocket API.
// Each fetch opens a short-lived connection.
type DerivFetcher struct {
	cfg      DerivConfig
	endpoint string
	dialer   *websocket.Dialer
}

// NewDerivFetcher returns an error if the URL is unparseable.
func NewDerivFetcher(cfg DerivConfig) (*DerivFetcher, error) {
	cfg.defaults()
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse deriv url: %w", err)
	}
	q := u.Query()
	q.Set("app_id", cfg.AppID)
	u.RawQuery = q.Encode()

	return &DerivFetcher{
		cfg:      cfg,
		endpoint: u.String(),
		dialer:   &websocket.Dialer{HandshakeTimeout: cfg.Timeout},
	}, nil
}

func (f *DerivFetcher) Name() string { return "deriv" }

type ticksHistoryRequest struct {
	TicksHistory    string `json:"ticks_history"`
	AdjustStartTime int    `json:"adjust_start_time"`
	Count           int    `json:"count"`
	End             string `json:"end"`
	Start           int    `json:"start"`
	Granularity     int    `json:"granularity"`
	Style           string `json:"style"`
}

type derivCandle struct {
	Epoch int64     `json:"epoch"`
	Open  flexFloat `json:"open"`
	High  flexFloat `json:"high"`
	Low   flexFloat `json:"low"`
	Close flexFloat `json:"close"`
}

type ticksHistoryResponse struct {
	MsgType string        `json:"msg_type"`
	Candles []derivCandle `json:"candles"`
	Error   *APIError     `json:"error"`
}

// flexFloat accepts prices encoded either as JSON numbers or strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// FetchCandles requests the latest count candles, retrying transport failures
// with exponential backoff. API errors are not retried.
func (f *DerivFetcher) FetchCandles(ctx context.Context, symbol string, granularity, count int) ([]model.Candle, error) {
	delay := f.cfg.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn(ctx, "deriv fetch failed, retrying",
				"symbol", symbol, "attempt", attempt, "delay", delay.String(), "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		candles, err := f.fetchOnce(ctx, symbol, granularity, count)
		if err == nil {
			return candles, nil
		}
		if errors.Is(err, ErrAPI) || errors.Is(err, ErrNoCandles) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("deriv fetch %s after %d attempts: %w", symbol, f.cfg.MaxRetries+1, lastErr)
}

func (f *DerivFetcher) fetchOnce(ctx context.Context, symbol string, granularity, count int) ([]model.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	conn, _, err := f.dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Unblock reads when ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	req := ticksHistoryRequest{
		TicksHistory:    symbol,
		AdjustStartTime: 1,
		Count:           count,
		End:             "latest",
		Start:           1,
		Granularity:     granularity,
		Style:           "candles",
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		var resp ticksHistoryResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		if resp.MsgType != "" && resp.MsgType != "candles" {
			continue
		}
		if len(resp.Candles) == 0 {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoCandles)
		}
		return toCandles(resp.Candles), nil
	}
}

func toCandles(in []derivCandle) []model.Candle {
	out := make([]model.Candle, len(in))
	for i, c := range in {
		out[i] = model.Candle{
			Epoch: c.Epoch,
			Open:  float64(c.Open),
			High:  float64(c.High),
			Low:   float64(c.Low),
			Close: float64(c.Close),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })
	return out
}
