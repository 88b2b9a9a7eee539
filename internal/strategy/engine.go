package strategy

import (
	"fmt"
	"math"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

const (
	minConfidence = 50
	maxConfidence = 95

	// Risky below this confidence even when a direction is given.
	RiskThreshold = 70

	priceFloor = 1e-9

	// Calibration multipliers for the distance bonuses.
	emaDistanceScale  = 800
	macdStrengthScale = 3000
	maxDistanceBonus  = 10
)

// Analyze scores the current (last) row of an indicator table.
func Analyze(rows []model.IndicatorRow) (model.Decision, error) {
	if len(rows) == 0 {
		return model.Decision{}, fmt.Errorf("%w: empty indicator table", calculator.ErrInsufficientData)
	}
	return Evaluate(rows[len(rows)-1]), nil
}

// Evaluate votes on a single indicator row and renders the resulting decision.
// It is deterministic: the same row always yields the same decision.
func Evaluate(row model.IndicatorRow) model.Decision {
	tally := tallyVotes(row)
	signal := decide(tally)
	confidence := scoreConfidence(row, tally)

	d := model.Decision{
		Signal:     signal,
		Confidence: confidence,
		Risky:      confidence < RiskThreshold || signal == model.DirectionNone,
		Rationale:  tally.Rationale,
		Price:      row.Close,
		Bullish:    tally.Bullish,
		Bearish:    tally.Bearish,
	}
	d.Message = RenderSignal(d)
	if d.Risky {
		d.RiskMessage = RenderRiskWarning(d)
	}
	return d
}

// decide requires a majority of at least two votes.
// The explicit comparison against the opposing count keeps the rule correct if more votes are added.
func decide(t model.Tally) model.Direction {
	switch {
	case t.Bullish >= 2 && t.Bullish > t.Bearish:
		return model.DirectionCall
	case t.Bearish >= 2 && t.Bearish > t.Bullish:
		return model.DirectionPut
	default:
		return model.DirectionNone
	}
}

func baseConfidence(t model.Tally) int {
	switch {
	case t.Bullish == 3 || t.Bearish == 3:
		return 70
	case t.Bullish == 2 || t.Bearish == 2:
		return 60
	default:
		return 50
	}
}

// scoreConfidence adds bonuses for extreme RSI and for EMA/MACD separation
// relative to price, then clamps to [50, 95].
func scoreConfidence(row model.IndicatorRow, t model.Tally) int {
	bonus := 0
	if row.RSI14 < 25 || row.RSI14 > 75 {
		bonus += 5
	}

	price := math.Max(row.Close, priceFloor)
	emaDist := math.Abs(row.EMA9-row.EMA21) / price
	bonus += cappedBonus(emaDist * emaDistanceScale)
	macdStrength := math.Abs(row.MACDHist) / price
	bonus += cappedBonus(macdStrength * macdStrengthScale)

	return clamp(baseConfidence(t)+bonus, minConfidence, maxConfidence)
}

func cappedBonus(scaled float64) int {
	if math.IsNaN(scaled) {
		return 0
	}
	return int(math.Min(math.Floor(scaled), maxDistanceBonus))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
