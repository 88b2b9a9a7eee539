package calculator

import (
	"errors"
	"fmt"

	"SignalSentinel/internal/model"
)

// MinCandles is the warm-up length needed for EMA/RSI/MACD to be meaningful.
const MinCandles = 50

const (
	FastEMASpan    = 9
	SlowEMASpan    = 21
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignalSpan = 9
)

// ErrInsufficientData is returned when fewer than MinCandles candles are supplied.
var ErrInsufficientData = errors.New("not enough candle data")

// ComputeIndicators builds the indicator table for candles sorted ascending by epoch.
// Every row only depends on candles at or before it; the last row is the current one.
func ComputeIndicators(candles []model.Candle) ([]model.IndicatorRow, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("%w: need >= %d, got %d", ErrInsufficientData, MinCandles, len(candles))
	}

	closes := extractCloses(candles)
	ema9 := EMA(closes, FastEMASpan)
	ema21 := EMA(closes, SlowEMASpan)
	rsi := WilderRSI(closes, RSIPeriod)
	macd := MACD(closes, MACDFast, MACDSlow, MACDSignalSpan)

	rows := make([]model.IndicatorRow, len(candles))
	for i, c := range candles {
		rows[i] = model.IndicatorRow{
			Candle:     c,
			EMA9:       ema9[i],
			EMA21:      ema21[i],
			RSI14:      rsi[i],
			MACD:       macd.Line[i],
			MACDSignal: macd.Signal[i],
			MACDHist:   macd.Histogram[i],
		}
	}
	return rows, nil
}
