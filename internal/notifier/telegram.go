package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SignalSentinel/internal/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// APIError is a Bot API response with ok=false.
type APIError struct {
	StatusCode  int
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ReplyMarkup is a custom keyboard attached to an outgoing message.
type ReplyMarkup interface {
	isReplyMarkup()
}

type keyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboard shows a one-time custom keyboard.
type ReplyKeyboard struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
}

func (ReplyKeyboard) isReplyMarkup() {}

// NewReplyKeyboard builds a resized one-time keyboard, one slice per row.
func NewReplyKeyboard(rows ...[]string) ReplyKeyboard {
	kb := ReplyKeyboard{OneTimeKeyboard: true, ResizeKeyboard: true}
	for _, row := range rows {
		buttons := make([]keyboardButton, len(row))
		for i, label := range row {
			buttons[i] = keyboardButton{Text: label}
		}
		kb.Keyboard = append(kb.Keyboard, buttons)
	}
	return kb
}

// RemoveKeyboard hides a previously shown custom keyboard.
type RemoveKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

func (RemoveKeyboard) isReplyMarkup() {}

func NewRemoveKeyboard() RemoveKeyboard { return RemoveKeyboard{RemoveKeyboard: true} }

// TelegramNotifier talks to the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	BaseURL    string
	Client     *http.Client
	RetryDelay time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		BaseURL:  defaultBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		RetryDelay: time.Second,
	}
}

func (t *TelegramNotifier) methodURL(method string) string {
	base := t.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(base, "/"), t.BotToken, method)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// call posts a JSON payload to a Bot API method and decodes the result into out.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	var r apiResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return &APIError{StatusCode: resp.StatusCode, ErrorCode: resp.StatusCode, Description: string(raw)}
	}
	if !r.OK {
		return &APIError{StatusCode: resp.StatusCode, ErrorCode: r.ErrorCode, Description: r.Description}
	}
	if out != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

type sendMessageRequest struct {
	ChatID      int64       `json:"chat_id"`
	Text        string      `json:"text"`
	ReplyMarkup ReplyMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends text to a chat and returns the new message id.
// markup may be nil.
func (t *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string, markup ReplyMarkup) (int, error) {
	var msg struct {
		MessageID int `json:"message_id"`
	}
	err := t.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup}, &msg)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// DeleteMessage removes a message previously sent by the bot.
func (t *TelegramNotifier) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	payload := map[string]int64{"chat_id": chatID, "message_id": int64(messageID)}
	return t.call(ctx, "deleteMessage", payload, nil)
}

// SendWithRetry sends a message with exponential backoff retry.
// Permanent API errors (bad request, blocked by user) are returned immediately.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string, markup ReplyMarkup, maxRetries int) (int, error) {
	delay := t.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		id, err := t.SendMessage(ctx, chatID, text, markup)
		if err == nil {
			return id, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return 0, err
		}
		if i == maxRetries {
			break
		}
		backoff := delay * time.Duration(1<<uint(i))
		logger.Warn(ctx, "telegram send failed, retrying",
			"chat_id", chatID, "attempt", i+1, "max_attempts", maxRetries+1, "backoff", backoff.String(), "error", err)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return 0, fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
