package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

const (
	rsiOversold   = 30
	rsiOverbought = 70
)

// voteRSI reads RSI as a contrarian signal: oversold is bullish, overbought is bearish.
// Both thresholds are strict.
func voteRSI(rsi float64) model.Vote {
	switch {
	case rsi < rsiOversold:
		return model.Vote{Outcome: model.Bullish, Text: fmt.Sprintf("RSI at %.0f (Oversold)", rsi)}
	case rsi > rsiOverbought:
		return model.Vote{Outcome: model.Bearish, Text: fmt.Sprintf("RSI at %.0f (Overbought)", rsi)}
	default:
		return model.Vote{Outcome: model.Neutral, Text: fmt.Sprintf("RSI at %.0f", rsi)}
	}
}

// voteEMACross compares the fast EMA(9) with the slow EMA(21).
func voteEMACross(ema9, ema21 float64) model.Vote {
	switch {
	case ema9 > ema21:
		return model.Vote{Outcome: model.Bullish, Text: "EMA(9) above EMA(21) (Bullish)"}
	case ema9 < ema21:
		return model.Vote{Outcome: model.Bearish, Text: "EMA(9) below EMA(21) (Bearish)"}
	default:
		return model.Vote{Outcome: model.Neutral, Text: "EMA(9) equals EMA(21)"}
	}
}

// voteMACD needs the histogram sign and the line/signal ordering to agree.
func voteMACD(line, signal, hist float64) model.Vote {
	switch {
	case hist > 0 && line > signal:
		return model.Vote{Outcome: model.Bullish, Text: "MACD histogram positive (Bullish)"}
	case hist < 0 && line < signal:
		return model.Vote{Outcome: model.Bearish, Text: "MACD histogram negative (Bearish)"}
	default:
		return model.Vote{Outcome: model.Neutral, Text: "MACD mixed"}
	}
}

// tallyVotes reduces the three votes of a row into counts and rationale.
func tallyVotes(row model.IndicatorRow) model.Tally {
	rsi := voteRSI(row.RSI14)
	ema := voteEMACross(row.EMA9, row.EMA21)
	macd := voteMACD(row.MACD, row.MACDSignal, row.MACDHist)

	t := model.Tally{
		Rationale: model.Rationale{RSI: rsi.Text, EMA: ema.Text, MACD: macd.Text},
	}
	for _, v := range []model.Vote{rsi, ema, macd} {
		switch v.Outcome {
		case model.Bullish:
			t.Bullish++
		case model.Bearish:
			t.Bearish++
		}
	}
	return t
}
