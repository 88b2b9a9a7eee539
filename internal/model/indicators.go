package model

// IndicatorRow extends a candle with the indicators computed up to and including it.
// RSI14 is NaN on the first row, where no price delta exists yet.
type IndicatorRow struct {
	Candle
	EMA9       float64
	EMA21      float64
	RSI14      float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
}
