package collector

import (
	"context"
	"fmt"
	"time"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// DefaultCount is the number of candles requested per analysis.
const DefaultCount = 120

// Collector orchestrates candle fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Count   int
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. A non-positive count falls back to DefaultCount.
func NewCollector(fetcher Fetcher, count int, m *metrics.Metrics) *Collector {
	if count <= 0 {
		count = DefaultCount
	}
	return &Collector{Fetcher: fetcher, Count: count, Metrics: m}
}

// Collect fetches candles for a Deriv symbol and computes the indicator table.
func (c *Collector) Collect(ctx context.Context, symbol string, granularity int) ([]model.IndicatorRow, error) {
	ctx, span := logger.StartSpan(ctx, "collector.Collect")
	var err error
	defer func() { logger.EndSpan(span, err) }()

	start := time.Now()
	candles, err := c.Fetcher.FetchCandles(ctx, symbol, granularity, c.Count)
	c.Metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		err = fmt.Errorf("fetch candles: %w", err)
		return nil, err
	}
	logger.Debug(ctx, "candles fetched",
		"source", c.Fetcher.Name(), "symbol", symbol, "granularity", granularity, "count", len(candles))

	rows, err := calculator.ComputeIndicators(candles)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
