package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// EMA computes the exponential moving average of values with smoothing factor 2/(span+1).
// The series is seeded with the first value and has the same length as the input.
func EMA(values []float64, span int) []float64 {
	return smooth(values, 2.0/float64(span+1))
}

// smooth folds values into a recursive average: out[0] = values[0],
// out[t] = alpha*values[t] + (1-alpha)*out[t-1].
// Leading NaNs are carried through; the first defined value seeds the average.
func smooth(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	seeded := false
	var prev float64
	for i, v := range values {
		if !seeded {
			out[i] = v
			if !math.IsNaN(v) {
				prev = v
				seeded = true
			}
			continue
		}
		prev += alpha * (v - prev)
		out[i] = prev
	}
	return out
}

func extractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
