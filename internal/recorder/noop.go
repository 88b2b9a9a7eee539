package recorder

import (
	"context"
	"time"

	"SignalSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
// Every user is treated as new and unlimited, and nothing is kept.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) EnsureUser(context.Context, int64) error                 { return nil }
func (n *NoopRecorder) SetCountry(context.Context, int64, string, string) error { return nil }
func (n *NoopRecorder) FirstSeen(context.Context, int64) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (n *NoopRecorder) IsVIP(context.Context, int64) (bool, error) { return false, nil }
func (n *NoopRecorder) SetVIP(_ context.Context, _ int64, days int) (time.Time, error) {
	return time.Now().UTC().AddDate(0, 0, max(1, days)), nil
}
func (n *NoopRecorder) RemoveVIP(context.Context, int64) error            { return nil }
func (n *NoopRecorder) ListVIP(context.Context) ([]model.VIPEntry, error) { return nil, nil }
func (n *NoopRecorder) VIPStats(context.Context) (model.VIPStats, error) {
	return model.VIPStats{}, nil
}
func (n *NoopRecorder) ExpireVIPs(context.Context) (int, error)             { return 0, nil }
func (n *NoopRecorder) RecordUsage(context.Context, int64) error            { return nil }
func (n *NoopRecorder) CountUsageToday(context.Context, int64) (int, error) { return 0, nil }
func (n *NoopRecorder) LogSignal(context.Context, *model.SignalLog) (int64, error) {
	return 0, nil
}
func (n *NoopRecorder) RecordOutcome(context.Context, int64, model.OutcomeResult, string) error {
	return nil
}
func (n *NoopRecorder) CountSignalsSince(context.Context, time.Time) (int, error) { return 0, nil }
func (n *NoopRecorder) Ping(context.Context) error                                { return nil }
func (n *NoopRecorder) Close() error                                              { return nil }
