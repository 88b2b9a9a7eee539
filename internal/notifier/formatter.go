package notifier

import (
	"fmt"
	"strings"
	"time"

	"SignalSentinel/internal/model"
)

// FormatWelcome is the /start greeting.
func FormatWelcome(ownerContact string, freeDailyLimit int) string {
	var b strings.Builder
	b.WriteString("👋 Welcome to Signal Sentinel\n\n")
	b.WriteString("Use /getsignal to generate a real-time signal.\n")
	b.WriteString("No OTC pairs allowed. Timeframe options: M5, M10, M15.\n\n")
	b.WriteString(fmt.Sprintf("Free plan: Day 1 unlimited. From Day 2: max %d signals/day.\n", freeDailyLimit))
	b.WriteString(fmt.Sprintf("For Premium, contact %s.", ownerContact))
	return b.String()
}

// FormatPairPrompt asks for a pair, listing a few examples.
func FormatPairPrompt(examples []string) string {
	if len(examples) > 6 {
		examples = examples[:6]
	}
	return fmt.Sprintf("Please type a valid pair (e.g., %s).", strings.Join(examples, ", "))
}

const (
	MsgOTCRejected       = "OTC pairs are not allowed. Please enter a different pair."
	MsgInvalidPair       = "Invalid pair. Try again (e.g., EURUSD, XAUUSD, BTCUSD)."
	MsgTimeframePrompt   = "Select timeframe:"
	MsgInvalidTimeframe  = "Invalid timeframe. Please choose one of M5, M10, M15."
	MsgCountryPrompt     = "Please type your country name (for future timezone adjustments)."
	MsgAnotherSignal     = "Want another? Click /getsignal"
	MsgCancelled         = "Cancelled. Use /getsignal to start again."
	MsgNothingToCancel   = "Nothing to cancel."
	MsgAnalysisRunning   = "An analysis is already running for you. Please wait."
	MsgNoActiveVIPs      = "No active VIPs."
	MsgUsageSetVIP       = "Usage: /setvip <user_id> <days>"
	MsgUsageRemoveVIP    = "Usage: /removevip <user_id>"
	MsgUsageOutcome      = "Usage: /outcome <signal_id> <WIN|LOSS|NA> [note]"
	MsgUnknownCommand    = "Unknown command. Use /getsignal to request a signal."
	MsgStartConversation = "Use /getsignal to request a signal."
)

// FormatQuotaReached tells a free user the daily limit is used up.
func FormatQuotaReached(ownerContact string) string {
	return "Your daily limit has been reached. Please try again tomorrow or contact " +
		ownerContact + " for Premium access."
}

func FormatAnalyzing(pair, timeframe string) string {
	return fmt.Sprintf("🔍 Analyzing %s on %s... Please wait.", pair, timeframe)
}

func FormatProcessingError(err error) string {
	return fmt.Sprintf("❌ Error while processing signal: %v", err)
}

func FormatVIPSet(userID int64, days int, expiry time.Time) string {
	return fmt.Sprintf("✅ VIP set for %d for %d days (expires: %s).", userID, days, expiry.UTC().Format("2006-01-02 15:04 UTC"))
}

func FormatVIPRemoved(userID int64) string {
	return fmt.Sprintf("✅ VIP removed for %d.", userID)
}

func FormatAdminError(err error) string {
	return fmt.Sprintf("❌ %v", err)
}

// FormatVIPList lists active VIPs, or says there are none.
func FormatVIPList(entries []model.VIPEntry) string {
	if len(entries) == 0 {
		return MsgNoActiveVIPs
	}
	lines := []string{"Active VIP users:"}
	for _, e := range entries {
		exp := "never"
		if !e.Expiry.IsZero() {
			exp = e.Expiry.UTC().Format("2006-01-02 15:04 UTC")
		}
		lines = append(lines, fmt.Sprintf("- %d (expires: %s)", e.UserID, exp))
	}
	return strings.Join(lines, "\n")
}

func FormatVIPStats(st model.VIPStats) string {
	return fmt.Sprintf("VIP: %d / Total users: %d", st.VIP, st.Total)
}

func FormatOutcomeRecorded(signalID int64, result model.OutcomeResult) string {
	return fmt.Sprintf("✅ Outcome %s recorded for signal #%d.", result, signalID)
}

// FormatAdminReport is the daily summary pushed to admins.
func FormatAdminReport(day time.Time, st model.VIPStats, signals24h int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Daily report | %s\n\n", day.UTC().Format("2006-01-02")))
	b.WriteString(FormatVIPStats(st))
	b.WriteString(fmt.Sprintf("\nSignals in the last 24h: %d", signals24h))
	return b.String()
}
