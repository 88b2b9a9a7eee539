package calculator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"SignalSentinel/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.8f, want %.8f (tol=%g)", label, got, want, tol)
	}
}

func candlesFromCloses(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Epoch: int64(1700000000 + i*300), Open: c, High: c, Low: c, Close: c}
	}
	return candles
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	p := 1.1
	for i := range closes {
		p += (r.Float64() - 0.5) * 0.01
		closes[i] = p
	}
	return closes
}

func TestEMA_KnownValues(t *testing.T) {
	// alpha = 2/(3+1) = 0.5
	got := EMA([]float64{1, 2, 3, 5}, 3)
	want := []float64{1, 1.5, 2.25, 3.625}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		assertClose(t, "EMA(3)", got[i], want[i], 1e-12)
	}
}

func TestEMA_LengthAndSeed(t *testing.T) {
	for _, span := range []int{9, 12, 21, 26} {
		closes := randomWalk(80, int64(span))
		ema := EMA(closes, span)
		if len(ema) != len(closes) {
			t.Errorf("span %d: length %d, want %d", span, len(ema), len(closes))
		}
		if ema[0] != closes[0] {
			t.Errorf("span %d: ema[0]=%v, want %v", span, ema[0], closes[0])
		}
	}
}

func TestEMA_FlatSeriesStaysFlat(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	for i, v := range EMA(closes, 21) {
		if v != 100 {
			t.Fatalf("index %d: got %v, want exactly 100", i, v)
		}
	}
}

func TestWilderRSI_KnownValues(t *testing.T) {
	// period 2 -> alpha 0.5
	// gains:  NaN, 1, 0  -> avg NaN, 1, 0.5
	// losses: NaN, 0, 1  -> avg NaN, 0, 0.5
	rsi := WilderRSI([]float64{1, 2, 1}, 2)
	if !math.IsNaN(rsi[0]) {
		t.Errorf("rsi[0]: got %v, want NaN", rsi[0])
	}
	assertClose(t, "rsi[1]", rsi[1], 100, 1e-6)
	assertClose(t, "rsi[2]", rsi[2], 50, 1e-12)
}

func TestWilderRSI_Bounds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rsi := WilderRSI(randomWalk(200, seed), 14)
		for i := 1; i < len(rsi); i++ {
			if rsi[i] < 0 || rsi[i] > 100 || math.IsNaN(rsi[i]) {
				t.Fatalf("seed %d index %d: rsi %v out of [0,100]", seed, i, rsi[i])
			}
		}
	}
}

func TestWilderRSI_Extremes(t *testing.T) {
	up := make([]float64, 60)
	down := make([]float64, 60)
	flat := make([]float64, 60)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 200 - float64(i)
		flat[i] = 100
	}
	if v := WilderRSI(up, 14)[59]; v < 99.99 {
		t.Errorf("uptrend RSI: got %.4f, want ~100", v)
	}
	if v := WilderRSI(down, 14)[59]; v > 0.01 {
		t.Errorf("downtrend RSI: got %.4f, want ~0", v)
	}
	if v := WilderRSI(flat, 14)[59]; v != 50 {
		t.Errorf("flat RSI: got %.4f, want 50", v)
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	closes := randomWalk(120, 7)
	m := MACD(closes, 12, 26, 9)
	for i := range closes {
		if diff := m.Histogram[i] - (m.Line[i] - m.Signal[i]); math.Abs(diff) > 1e-15 {
			t.Fatalf("index %d: histogram differs from line-signal by %g", i, diff)
		}
	}
	if m.Line[0] != 0 || m.Signal[0] != 0 {
		t.Errorf("first MACD row should be zero, got line=%v signal=%v", m.Line[0], m.Signal[0])
	}
}

func TestComputeIndicators_InsufficientData(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"one", 1},
		{"forty-nine", 49},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeIndicators(candlesFromCloses(randomWalk(tt.n, 1)))
			if !errors.Is(err, ErrInsufficientData) {
				t.Errorf("expected ErrInsufficientData, got %v", err)
			}
		})
	}
}

func TestComputeIndicators_Table(t *testing.T) {
	closes := randomWalk(MinCandles, 3)
	rows, err := ComputeIndicators(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != len(closes) {
		t.Fatalf("rows: got %d, want %d", len(rows), len(closes))
	}
	if rows[0].EMA9 != closes[0] || rows[0].EMA21 != closes[0] {
		t.Errorf("first row EMAs should equal the first close")
	}
	if !math.IsNaN(rows[0].RSI14) {
		t.Errorf("first row RSI should be NaN, got %v", rows[0].RSI14)
	}
	last := rows[len(rows)-1]
	if last.Close != closes[len(closes)-1] || last.Epoch != int64(1700000000+(len(closes)-1)*300) {
		t.Errorf("last row does not carry the last candle: %+v", last.Candle)
	}
	assertClose(t, "hist", last.MACDHist, last.MACD-last.MACDSignal, 1e-15)
}

func TestComputeIndicators_Causal(t *testing.T) {
	closes := randomWalk(100, 11)
	full, err := ComputeIndicators(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	prefix, err := ComputeIndicators(candlesFromCloses(closes[:60]))
	if err != nil {
		t.Fatal(err)
	}
	for i := range prefix {
		if prefix[i].EMA21 != full[i].EMA21 || prefix[i].MACDHist != full[i].MACDHist {
			t.Fatalf("row %d changed when later candles were appended", i)
		}
	}
}
