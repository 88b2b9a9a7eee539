// Package pairs maps user-facing pair names and timeframes onto Deriv symbols and granularities.
package pairs

import (
	"sort"
	"strings"
)

var userToDeriv = map[string]string{
	// Forex
	"EURUSD": "frxEURUSD",
	"GBPUSD": "frxGBPUSD",
	"USDJPY": "frxUSDJPY",
	"AUDUSD": "frxAUDUSD",
	"USDCAD": "frxUSDCAD",
	"GBPJPY": "frxGBPJPY",
	"EURGBP": "frxEURGBP",
	"EURJPY": "frxEURJPY",
	"XAUUSD": "frxXAUUSD",
	// Crypto
	"BTCUSD": "cryBTCUSD",
	"ETHUSD": "cryETHUSD",
	"LTCUSD": "cryLTCUSD",
	"BCHUSD": "cryBCHUSD",
}

var aliases = map[string]string{
	"BTCUSDT": "BTCUSD",
	"ETHUSDT": "ETHUSD",
	"LTCUSDT": "LTCUSD",
	"BCHUSDT": "BCHUSD",
}

var timeframes = map[string]int{
	"M5":  300,
	"M10": 600,
	"M15": 900,
}

// Normalize upper-cases and trims a user symbol and folds USDT quotes onto USD.
func Normalize(sym string) string {
	s := strings.ToUpper(strings.TrimSpace(sym))
	if alias, ok := aliases[s]; ok {
		return alias
	}
	return s
}

// ToDeriv returns the Deriv symbol for a user symbol.
func ToDeriv(sym string) (string, bool) {
	d, ok := userToDeriv[Normalize(sym)]
	return d, ok
}

func IsValid(sym string) bool {
	_, ok := ToDeriv(sym)
	return ok
}

// IsOTC reports whether the user asked for an over-the-counter variant, which is never served.
func IsOTC(sym string) bool {
	return strings.Contains(strings.ToUpper(sym), "OTC")
}

func IsSupportedTF(tf string) bool {
	_, ok := Granularity(tf)
	return ok
}

// Granularity returns the candle size in seconds for a timeframe label.
func Granularity(tf string) (int, bool) {
	g, ok := timeframes[strings.ToUpper(strings.TrimSpace(tf))]
	return g, ok
}

// SupportedSymbols lists the user-facing symbols, forex first, in a stable order.
func SupportedSymbols() []string {
	out := make([]string, 0, len(userToDeriv))
	for s := range userToDeriv {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := strings.HasPrefix(userToDeriv[out[i]], "cry"), strings.HasPrefix(userToDeriv[out[j]], "cry")
		if ci != cj {
			return !ci
		}
		return out[i] < out[j]
	})
	return out
}

// SupportedTimeframes lists the timeframe labels from shortest to longest.
func SupportedTimeframes() []string {
	out := make([]string, 0, len(timeframes))
	for tf := range timeframes {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool { return timeframes[out[i]] < timeframes[out[j]] })
	return out
}
