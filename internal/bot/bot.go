// Package bot runs the Telegram conversation: pair and timeframe selection,
// free-plan quota, signal delivery and the admin commands.
package bot

import (
	"context"
	"sync"
	"time"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
)

// Messenger delivers chat messages.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup notifier.ReplyMarkup) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// CandleSource produces the indicator table for a Deriv symbol.
type CandleSource interface {
	Collect(ctx context.Context, symbol string, granularity int) ([]model.IndicatorRow, error)
}

// Options configures the bot.
type Options struct {
	AdminIDs        []int64
	OwnerContact    string
	FreeDailyLimit  int
	AnalysisTimeout time.Duration
}

// Bot routes incoming messages. It is safe for concurrent use.
type Bot struct {
	msg     Messenger
	rec     recorder.Recorder
	source  CandleSource
	metrics *metrics.Metrics
	opts    Options
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[int64]*session
	analyzing map[int64]bool

	wg sync.WaitGroup
}

func New(msg Messenger, rec recorder.Recorder, source CandleSource, m *metrics.Metrics, opts Options) *Bot {
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = time.Minute
	}
	return &Bot{
		msg:       msg,
		rec:       rec,
		source:    source,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
		sessions:  make(map[int64]*session),
		analyzing: make(map[int64]bool),
	}
}

// Wait blocks until all running analyses have finished.
func (b *Bot) Wait() { b.wg.Wait() }

// HandleMessage is the notifier.MessageHandler entry point.
func (b *Bot) HandleMessage(ctx context.Context, m notifier.Message) {
	if m.IsCommand() {
		b.handleCommand(ctx, m)
		return
	}
	b.handleText(ctx, m)
}

func (b *Bot) handleCommand(ctx context.Context, m notifier.Message) {
	cmd, args := m.Command()
	switch cmd {
	case "start":
		b.metrics.Command(cmd)
		b.start(ctx, m)
	case "getsignal":
		b.metrics.Command(cmd)
		b.getSignal(ctx, m)
	case "cancel":
		b.metrics.Command(cmd)
		b.cancel(ctx, m)
	case "setvip", "removevip", "viplist", "vipstats", "outcome":
		if !b.isAdmin(m.UserID) {
			logger.Warn(ctx, "admin command from non-admin", "command", cmd, "user_id", m.UserID)
			return
		}
		b.metrics.Command(cmd)
		b.handleAdmin(ctx, m, cmd, args)
	default:
		b.reply(ctx, m.ChatID, notifier.MsgUnknownCommand, nil)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.opts.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) start(ctx context.Context, m notifier.Message) {
	if err := b.rec.EnsureUser(ctx, m.UserID); err != nil {
		logger.Error(ctx, "register user", "user_id", m.UserID, "error", err)
	}
	b.endSession(m.UserID)
	b.reply(ctx, m.ChatID, notifier.FormatWelcome(b.opts.OwnerContact, b.opts.FreeDailyLimit), nil)
}

func (b *Bot) cancel(ctx context.Context, m notifier.Message) {
	if b.endSession(m.UserID) {
		b.reply(ctx, m.ChatID, notifier.MsgCancelled, notifier.NewRemoveKeyboard())
		return
	}
	b.reply(ctx, m.ChatID, notifier.MsgNothingToCancel, nil)
}

// reply sends a message and logs delivery failures; it returns the message id or 0.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup notifier.ReplyMarkup) int {
	id, err := b.msg.SendMessage(ctx, chatID, text, markup)
	if err != nil {
		logger.Error(ctx, "send message", "chat_id", chatID, "error", err)
		return 0
	}
	return id
}

// quotaExceeded applies the free plan: unlimited on the first UTC day,
// then at most FreeDailyLimit signals per UTC day. VIPs are never limited.
func (b *Bot) quotaExceeded(ctx context.Context, userID int64) (bool, error) {
	vip, err := b.rec.IsVIP(ctx, userID)
	if err != nil {
		return false, err
	}
	if vip {
		return false, nil
	}
	firstSeen, ok, err := b.rec.FirstSeen(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok || !utcDay(firstSeen).Before(utcDay(b.now())) {
		return false, nil
	}
	used, err := b.rec.CountUsageToday(ctx, userID)
	if err != nil {
		return false, err
	}
	return used >= b.opts.FreeDailyLimit, nil
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
