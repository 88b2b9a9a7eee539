package calculator

// MACDSeries holds the three MACD series, aligned with the input prices.
type MACDSeries struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the MACD line (fast EMA minus slow EMA), its signal EMA and the histogram.
func MACD(closes []float64, fast, slow, signal int) MACDSeries {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMA(line, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signalLine[i]
	}
	return MACDSeries{Line: line, Signal: signalLine, Histogram: hist}
}
