package bot

import (
	"context"
	"strings"
	"unicode"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/pairs"
)

type stage int

const (
	stageAskPair stage = iota
	stageAskTimeframe
	stageAskCountry
)

// session is one user's in-progress /getsignal conversation.
type session struct {
	stage     stage
	pair      string
	symbol    string
	timeframe string
}

func (b *Bot) getSession(userID int64) (session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[userID]
	if !ok {
		return session{}, false
	}
	return *s, true
}

func (b *Bot) setSession(userID int64, s session) {
	b.mu.Lock()
	b.sessions[userID] = &s
	b.mu.Unlock()
}

// endSession drops the conversation and reports whether one existed.
func (b *Bot) endSession(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[userID]
	delete(b.sessions, userID)
	return ok
}

func timeframeKeyboard() notifier.ReplyKeyboard {
	return notifier.NewReplyKeyboard(pairs.SupportedTimeframes())
}

func (b *Bot) getSignal(ctx context.Context, m notifier.Message) {
	b.mu.Lock()
	busy := b.analyzing[m.UserID]
	b.mu.Unlock()
	if busy {
		b.reply(ctx, m.ChatID, notifier.MsgAnalysisRunning, nil)
		return
	}

	if err := b.rec.EnsureUser(ctx, m.UserID); err != nil {
		logger.Error(ctx, "register user", "user_id", m.UserID, "error", err)
	}
	exceeded, err := b.quotaExceeded(ctx, m.UserID)
	if err != nil {
		logger.Error(ctx, "quota check", "user_id", m.UserID, "error", err)
		b.reply(ctx, m.ChatID, notifier.FormatProcessingError(err), nil)
		return
	}
	if exceeded {
		b.metrics.QuotaHit()
		b.endSession(m.UserID)
		b.reply(ctx, m.ChatID, notifier.FormatQuotaReached(b.opts.OwnerContact), nil)
		return
	}

	b.setSession(m.UserID, session{stage: stageAskPair})
	b.reply(ctx, m.ChatID, notifier.FormatPairPrompt(pairs.SupportedSymbols()), notifier.NewRemoveKeyboard())
}

func (b *Bot) handleText(ctx context.Context, m notifier.Message) {
	s, ok := b.getSession(m.UserID)
	if !ok {
		b.reply(ctx, m.ChatID, notifier.MsgStartConversation, nil)
		return
	}

	switch s.stage {
	case stageAskPair:
		pair := strings.ToUpper(strings.TrimSpace(m.Text))
		if pairs.IsOTC(pair) {
			b.reply(ctx, m.ChatID, notifier.MsgOTCRejected, nil)
			return
		}
		symbol, valid := pairs.ToDeriv(pair)
		if !valid {
			b.reply(ctx, m.ChatID, notifier.MsgInvalidPair, nil)
			return
		}
		s.pair = pairs.Normalize(pair)
		s.symbol = symbol
		s.stage = stageAskTimeframe
		b.setSession(m.UserID, s)
		b.reply(ctx, m.ChatID, notifier.MsgTimeframePrompt, timeframeKeyboard())

	case stageAskTimeframe:
		tf := strings.ToUpper(strings.TrimSpace(m.Text))
		if !pairs.IsSupportedTF(tf) {
			b.reply(ctx, m.ChatID, notifier.MsgInvalidTimeframe, timeframeKeyboard())
			return
		}
		s.timeframe = tf
		s.stage = stageAskCountry
		b.setSession(m.UserID, s)
		b.reply(ctx, m.ChatID, notifier.MsgCountryPrompt, notifier.NewRemoveKeyboard())

	case stageAskCountry:
		b.endSession(m.UserID)
		if country := titleCase(m.Text); country != "" {
			if err := b.rec.SetCountry(ctx, m.UserID, country, ""); err != nil {
				logger.Warn(ctx, "store country", "user_id", m.UserID, "error", err)
			}
		}
		b.launchAnalysis(ctx, m.ChatID, m.UserID, s)
	}
}

// titleCase capitalizes each word, e.g. "united  kingdom" -> "United Kingdom".
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
