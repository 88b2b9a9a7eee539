package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "")
	n.BaseURL = srv.URL
	n.RetryDelay = time.Millisecond
	return n
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer srv.Close()

	id, err := newTestNotifier(srv).SendMessage(context.Background(), 1001, "hello", NewReplyKeyboard([]string{"M5", "M10", "M15"}))
	if err != nil {
		t.Fatal(err)
	}
	if id != 77 {
		t.Errorf("message id = %d, want 77", id)
	}
	if got["chat_id"] != float64(1001) || got["text"] != "hello" {
		t.Errorf("payload = %v", got)
	}
	markup, ok := got["reply_markup"].(map[string]any)
	if !ok || markup["one_time_keyboard"] != true {
		t.Fatalf("reply_markup = %v", got["reply_markup"])
	}
	rows := markup["keyboard"].([]any)
	if len(rows) != 1 || len(rows[0].([]any)) != 3 {
		t.Errorf("keyboard = %v", rows)
	}
}

func TestSendMessage_NoMarkupOmitted(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	if _, err := newTestNotifier(srv).SendMessage(context.Background(), 1, "x", nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(raw, "reply_markup") {
		t.Errorf("nil markup serialized: %s", raw)
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":5}}`))
	}))
	defer srv.Close()

	id, err := newTestNotifier(srv).SendWithRetry(context.Background(), 1, "x", nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if id != 5 || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("id=%d calls=%d, want 5 after 3 calls", id, calls)
	}
}

func TestSendWithRetry_PermanentError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	_, err := newTestNotifier(srv).SendWithRetry(context.Background(), 1, "x", nil, 3)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode != 403 {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDeleteMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/deleteMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	if err := newTestNotifier(srv).DeleteMessage(context.Background(), 10, 99); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != float64(10) || got["message_id"] != float64(99) {
		t.Errorf("payload = %v", got)
	}
}

func TestStartPolling(t *testing.T) {
	var served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req getUpdatesRequest
		json.NewDecoder(r.Body).Decode(&req)
		if atomic.AddInt32(&served, 1) == 1 {
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":10,"message":{"message_id":1,"text":" /start ","from":{"id":500,"username":"alice"},"chat":{"id":600}}},
				{"update_id":11,"message":{"message_id":2,"text":"","from":{"id":500},"chat":{"id":600}}},
				{"update_id":12}
			]}`))
			return
		}
		if req.Offset != 13 {
			t.Errorf("offset = %d, want 13", req.Offset)
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []Message
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv).StartPolling(ctx, func(_ context.Context, m Message) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		})
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&served) < 2 {
		select {
		case <-deadline:
			t.Fatal("poller did not issue a second request")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("handled %d messages, want 1", len(got))
	}
	m := got[0]
	if m.Text != "/start" || m.UserID != 500 || m.ChatID != 600 || m.Username != "alice" {
		t.Errorf("message = %+v", m)
	}
}

func TestMessageCommand(t *testing.T) {
	cmd, args := Message{Text: "/setvip@SentinelBot 42 30"}.Command()
	if cmd != "setvip" || len(args) != 2 || args[0] != "42" {
		t.Errorf("Command() = %q %v", cmd, args)
	}
	if cmd, _ := (Message{Text: "EURUSD"}).Command(); cmd != "" {
		t.Errorf("plain text parsed as command %q", cmd)
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatVIPList(nil); got != "No active VIPs." {
		t.Errorf("empty list = %q", got)
	}
	exp := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	got := FormatVIPList([]model.VIPEntry{{UserID: 42, Expiry: exp}})
	if got != "Active VIP users:\n- 42 (expires: 2026-05-01 08:30 UTC)" {
		t.Errorf("list = %q", got)
	}
	if got := FormatVIPStats(model.VIPStats{VIP: 2, Total: 9}); got != "VIP: 2 / Total users: 9" {
		t.Errorf("stats = %q", got)
	}
	if !strings.Contains(FormatWelcome("@owner", 5), "max 5 signals/day") {
		t.Error("welcome missing free limit")
	}
	if got := FormatPairPrompt([]string{"EURUSD", "GBPUSD"}); got != "Please type a valid pair (e.g., EURUSD, GBPUSD)." {
		t.Errorf("prompt = %q", got)
	}
}
