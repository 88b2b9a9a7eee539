package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
)

// Sender delivers a message with retries.
type Sender interface {
	SendWithRetry(ctx context.Context, chatID int64, text string, markup notifier.ReplyMarkup, maxRetries int) (int, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Sender   Sender
	Recorder recorder.Recorder
	AdminIDs []int64
	Ctx      context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sender Sender, rec recorder.Recorder, adminIDs []int64) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Sender:   sender,
		Recorder: rec,
		AdminIDs: adminIDs,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterAll registers the VIP expiry sweep and the daily admin report.
func (s *Scheduler) RegisterAll(vipSweepCron, adminReportCron string) error {
	if _, err := s.Cron.AddFunc(vipSweepCron, s.vipSweep); err != nil {
		return fmt.Errorf("register vip sweep: %w", err)
	}
	if _, err := s.Cron.AddFunc(adminReportCron, s.adminReport); err != nil {
		return fmt.Errorf("register admin report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info(s.Ctx, "scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info(s.Ctx, "scheduler stopped")
}

// RunReportNow sends the admin report immediately.
func (s *Scheduler) RunReportNow() {
	s.adminReport()
}

func (s *Scheduler) vipSweep() {
	n, err := s.Recorder.ExpireVIPs(s.Ctx)
	if err != nil {
		logger.Error(s.Ctx, "vip sweep failed", "error", err)
		return
	}
	logger.Info(s.Ctx, "vip sweep done", "expired", n)
}

func (s *Scheduler) adminReport() {
	if len(s.AdminIDs) == 0 {
		return
	}
	st, err := s.Recorder.VIPStats(s.Ctx)
	if err != nil {
		logger.Error(s.Ctx, "admin report: vip stats", "error", err)
		return
	}
	now := s.now()
	signals, err := s.Recorder.CountSignalsSince(s.Ctx, now.Add(-24*time.Hour))
	if err != nil {
		logger.Error(s.Ctx, "admin report: count signals", "error", err)
		return
	}

	report := notifier.FormatAdminReport(now, st, signals)
	for _, id := range s.AdminIDs {
		s.trySend(id, report)
	}
}

func (s *Scheduler) trySend(chatID int64, text string) {
	if _, err := s.Sender.SendWithRetry(s.Ctx, chatID, text, nil, 3); err != nil {
		logger.Error(s.Ctx, "send notification", "chat_id", chatID, "error", err)
	}
}
