package collector

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

// ErrNoCandles is returned when the upstream answers without any candles.
var ErrNoCandles = errors.New("no candles returned")

// Fetcher defines the interface for fetching OHLC candles.
// Returned candles are sorted ascending by epoch.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, granularity, count int) ([]model.Candle, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Candles []model.Candle
	Err     error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, granularity, count int) ([]model.Candle, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candles != nil {
		return m.Candles, nil
	}
	return generateMockCandles(m.Price, granularity, count), nil
}

// Calls reports how many times FetchCandles has been invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func generateMockCandles(basePrice float64, granularity, count int) []model.Candle {
	if basePrice <= 0 {
		basePrice = 1.0
	}
	if granularity <= 0 {
		granularity = 300
	}
	end := time.Now().Unix() / int64(granularity) * int64(granularity)
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.002*math.Sin(float64(i)/6) + float64(i-count/2)*0.0001)
		candles[i] = model.Candle{
			Epoch: end - int64(count-1-i)*int64(granularity),
			Open:  p * 0.9998,
			High:  p * 1.0006,
			Low:   p * 0.9994,
			Close: p,
		}
	}
	return candles
}
