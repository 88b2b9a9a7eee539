package bot

import (
	"context"
	"fmt"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/pairs"
	"SignalSentinel/internal/strategy"
)

// launchAnalysis runs the analysis in the background so polling keeps going.
// At most one analysis per user runs at a time.
func (b *Bot) launchAnalysis(ctx context.Context, chatID, userID int64, s session) {
	b.mu.Lock()
	if b.analyzing[userID] {
		b.mu.Unlock()
		b.reply(ctx, chatID, notifier.MsgAnalysisRunning, nil)
		return
	}
	b.analyzing[userID] = true
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			b.mu.Lock()
			delete(b.analyzing, userID)
			b.mu.Unlock()
		}()
		b.analyze(ctx, chatID, userID, s)
	}()
}

func (b *Bot) analyze(ctx context.Context, chatID, userID int64, s session) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.AnalysisTimeout)
	defer cancel()
	ctx, span := logger.StartSpan(ctx, "bot.analyze")
	var err error
	defer func() { logger.EndSpan(span, err) }()

	statusID := b.reply(ctx, chatID, notifier.FormatAnalyzing(s.pair, s.timeframe), nil)
	defer func() {
		if statusID == 0 {
			return
		}
		if derr := b.msg.DeleteMessage(context.WithoutCancel(ctx), chatID, statusID); derr != nil {
			logger.Debug(ctx, "delete status message", "error", derr)
		}
	}()

	var d model.Decision
	d, err = b.evaluate(ctx, s)
	if err != nil {
		b.metrics.AnalysisFailed()
		logger.Error(ctx, "analysis failed", "user_id", userID, "pair", s.pair, "timeframe", s.timeframe, "error", err)
		b.reply(ctx, chatID, notifier.FormatProcessingError(err), nil)
		return
	}

	if _, err = b.msg.SendMessage(ctx, chatID, d.Message, nil); err != nil {
		b.metrics.AnalysisFailed()
		logger.Error(ctx, "deliver signal", "user_id", userID, "error", err)
		return
	}
	if d.Risky {
		b.reply(ctx, chatID, d.RiskMessage, nil)
	}
	b.metrics.SignalSent(string(d.Signal), d.Risky)

	if rerr := b.rec.RecordUsage(ctx, userID); rerr != nil {
		logger.Error(ctx, "record usage", "user_id", userID, "error", rerr)
	}
	id, lerr := b.rec.LogSignal(ctx, &model.SignalLog{
		UserID:     userID,
		Pair:       s.pair,
		Timeframe:  s.timeframe,
		Signal:     d.Signal,
		Confidence: d.Confidence,
		Risky:      d.Risky,
		Price:      d.Price,
		Message:    d.Message,
		SentAt:     b.now(),
	})
	if lerr != nil {
		logger.Error(ctx, "log signal", "user_id", userID, "error", lerr)
	}
	logger.Info(ctx, "signal delivered",
		"signal_id", id, "user_id", userID, "pair", s.pair, "timeframe", s.timeframe,
		"direction", string(d.Signal), "confidence", d.Confidence, "risky", d.Risky)

	b.reply(ctx, chatID, notifier.MsgAnotherSignal, nil)
}

func (b *Bot) evaluate(ctx context.Context, s session) (model.Decision, error) {
	gran, ok := pairs.Granularity(s.timeframe)
	if !ok {
		return model.Decision{}, fmt.Errorf("unsupported timeframe %q", s.timeframe)
	}
	rows, err := b.source.Collect(ctx, s.symbol, gran)
	if err != nil {
		return model.Decision{}, err
	}
	return strategy.Analyze(rows)
}
