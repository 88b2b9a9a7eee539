package strategy

import (
	"fmt"
	"strings"

	"SignalSentinel/internal/model"
)

// ConfidenceLevel maps a confidence score to its qualitative tier.
func ConfidenceLevel(confidence int) string {
	switch {
	case confidence >= 85:
		return "High Conviction"
	case confidence >= 80:
		return "Medium-High"
	case confidence >= 70:
		return "Medium"
	default:
		return "Low"
	}
}

func signalLabel(d model.Direction) string {
	if d == model.DirectionNone || d == "" {
		return "⚠️ No Clear Direction"
	}
	return string(d)
}

// RenderSignal builds the signal message delivered to the user.
func RenderSignal(d model.Decision) string {
	var b strings.Builder
	b.WriteString("⚡SIGNAL SENTINEL⚡\n\n")
	b.WriteString(fmt.Sprintf("🔹 Signal Type: %s\n", signalLabel(d.Signal)))
	b.WriteString("🔹 Entry: Next Candle Opening\n")
	b.WriteString(fmt.Sprintf("🔹 Last Price: %.5f\n", d.Price))
	b.WriteString(fmt.Sprintf("🔹 Confidence Level: %d%% (%s)\n", d.Confidence, ConfidenceLevel(d.Confidence)))
	b.WriteString("🔹 Technical Rationale:\n")
	b.WriteString(fmt.Sprintf(" - %s\n", d.Rationale.RSI))
	b.WriteString(fmt.Sprintf(" - %s\n", d.Rationale.EMA))
	b.WriteString(fmt.Sprintf(" - %s\n", d.Rationale.MACD))
	b.WriteString("\n⚠️ Risk Disclaimer: Binary options involve substantial risk. Ensure proper risk management and education before trading.")
	return b.String()
}

// RenderRiskWarning builds the separate warning sent with risky decisions.
func RenderRiskWarning(d model.Decision) string {
	if d.Signal == model.DirectionNone {
		return fmt.Sprintf("⚠️ Risk Warning\nNo clear direction (confidence %d%%). "+
			"Consider waiting for a cleaner setup or trying another pair/timeframe.", d.Confidence)
	}
	return fmt.Sprintf("⚠️ Risk Warning\nConfidence is %d%%, which indicates increased risk. "+
		"Consider waiting for a cleaner setup or trying another pair/timeframe.", d.Confidence)
}
