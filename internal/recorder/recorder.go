package recorder

import (
	"context"
	"errors"
	"time"

	"SignalSentinel/internal/model"
)

// ErrSignalNotFound is returned when an outcome references an unknown signal.
var ErrSignalNotFound = errors.New("signal not found")

// Recorder persists users, quota usage, delivered signals and their outcomes.
type Recorder interface {
	// EnsureUser registers a user on first contact; later calls are no-ops.
	EnsureUser(ctx context.Context, userID int64) error
	SetCountry(ctx context.Context, userID int64, country, tz string) error
	// FirstSeen reports when the user was registered; ok is false for unknown users.
	FirstSeen(ctx context.Context, userID int64) (t time.Time, ok bool, err error)

	// IsVIP reports premium status, downgrading users whose VIP has expired.
	IsVIP(ctx context.Context, userID int64) (bool, error)
	// SetVIP grants premium for at least one day and returns the expiry.
	SetVIP(ctx context.Context, userID int64, days int) (time.Time, error)
	RemoveVIP(ctx context.Context, userID int64) error
	ListVIP(ctx context.Context) ([]model.VIPEntry, error)
	VIPStats(ctx context.Context) (model.VIPStats, error)
	// ExpireVIPs downgrades every lapsed VIP and returns how many were affected.
	ExpireVIPs(ctx context.Context) (int, error)

	RecordUsage(ctx context.Context, userID int64) error
	// CountUsageToday counts signals used during the current UTC day.
	CountUsageToday(ctx context.Context, userID int64) (int, error)

	LogSignal(ctx context.Context, sig *model.SignalLog) (int64, error)
	RecordOutcome(ctx context.Context, signalID int64, result model.OutcomeResult, note string) error
	CountSignalsSince(ctx context.Context, since time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
