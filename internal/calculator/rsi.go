package calculator

import "math"

// lossFloor keeps RS finite when the average loss is zero.
const lossFloor = 1e-10

// WilderRSI computes the Wilder-smoothed RSI series over the given period.
// Gains and losses are smoothed with alpha = 1/period, seeded by the first delta.
// The first element is NaN because no delta exists yet.
//
// A window with neither gains nor losses reads 50 (no net direction).
func WilderRSI(closes []float64, period int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	if n > 0 {
		gains[0] = math.NaN()
		losses[0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	alpha := 1.0 / float64(period)
	avgGain := smooth(gains, alpha)
	avgLoss := smooth(losses, alpha)

	rsi := make([]float64, n)
	for i := range rsi {
		rsi[i] = rsiFromAverages(avgGain[i], avgLoss[i])
	}
	return rsi
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	rs := avgGain / math.Max(avgLoss, lossFloor)
	return 100 - 100/(1+rs)
}
