package notifier

import (
	"context"
	"strings"
	"time"

	"SignalSentinel/internal/logger"
)

// Message is an incoming text message.
type Message struct {
	ID       int
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

// IsCommand reports whether the text starts with a slash command.
func (m Message) IsCommand() bool { return strings.HasPrefix(m.Text, "/") }

// Command splits "/cmd@bot a b" into "cmd" and its arguments.
func (m Message) Command() (string, []string) {
	if !m.IsCommand() {
		return "", nil
	}
	fields := strings.Fields(m.Text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

// MessageHandler is called for every incoming text message.
type MessageHandler func(ctx context.Context, msg Message)

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		MessageID int    `json:"message_id"`
		Text      string `json:"text"`
		From      *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// PollTimeout is the long-polling wait passed to getUpdates.
var PollTimeout = 30 * time.Second

// StartPolling long-polls getUpdates and hands each text message to handler.
// Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler MessageHandler) {
	offset := 0
	pollClient := *t.Client
	pollClient.Timeout = PollTimeout + 5*time.Second
	poller := &TelegramNotifier{BotToken: t.BotToken, BaseURL: t.BaseURL, Client: &pollClient}

	for {
		if ctx.Err() != nil {
			logger.Info(ctx, "telegram polling stopped")
			return
		}

		var updates []telegramUpdate
		err := poller.call(ctx, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        int(PollTimeout.Seconds()),
			AllowedUpdates: []string{"message"},
		}, &updates)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "telegram polling stopped")
				return
			}
			logger.Warn(ctx, "polling request failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
				continue
			}
			msg := Message{
				ID:     u.Message.MessageID,
				ChatID: u.Message.Chat.ID,
				Text:   strings.TrimSpace(u.Message.Text),
			}
			if u.Message.From != nil {
				msg.UserID = u.Message.From.ID
				msg.Username = u.Message.From.Username
			} else {
				msg.UserID = msg.ChatID
			}
			logger.Debug(ctx, "message received", "chat_id", msg.ChatID, "user_id", msg.UserID)
			handler(ctx, msg)
		}
	}
}
