package model

import (
	"strings"
	"time"
)

// VIPEntry is an active premium user.
type VIPEntry struct {
	UserID int64
	Expiry time.Time
}

// VIPStats summarizes the user base.
type VIPStats struct {
	VIP   int
	Total int
}

// SignalLog is the audit record of a signal delivered to a user.
type SignalLog struct {
	UserID     int64
	Pair       string
	Timeframe  string
	Signal     Direction
	Confidence int
	Risky      bool
	Price      float64
	Message    string
	SentAt     time.Time
}

// OutcomeResult is the manually reported result of a delivered signal.
type OutcomeResult string

const (
	OutcomeWin  OutcomeResult = "WIN"
	OutcomeLoss OutcomeResult = "LOSS"
	OutcomeNA   OutcomeResult = "NA"
)

// ParseOutcomeResult accepts WIN, LOSS or NA in any case.
func ParseOutcomeResult(s string) (OutcomeResult, bool) {
	switch OutcomeResult(strings.ToUpper(strings.TrimSpace(s))) {
	case OutcomeWin:
		return OutcomeWin, true
	case OutcomeLoss:
		return OutcomeLoss, true
	case OutcomeNA:
		return OutcomeNA, true
	}
	return "", false
}
