package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
)

type sent struct {
	chatID int64
	text   string
	markup notifier.ReplyMarkup
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sent
	deleted []int
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, markup notifier.ReplyMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sent{chatID: chatID, text: text, markup: markup})
	return f.nextID, nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.text
	}
	return out
}

func (f *fakeMessenger) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sent{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	f.sent = nil
	f.deleted = nil
	f.mu.Unlock()
}

const (
	adminID int64 = 1
	userID  int64 = 500
	chatID  int64 = 900
)

type harness struct {
	bot *Bot
	msg *fakeMessenger
	rec *recorder.SQLiteRecorder
}

func newHarness(t *testing.T, fetcher collector.Fetcher) *harness {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() })

	msg := &fakeMessenger{}
	m := metrics.New()
	b := New(msg, rec, collector.NewCollector(fetcher, 120, m), m, Options{
		AdminIDs:       []int64{adminID},
		OwnerContact:   "@owner",
		FreeDailyLimit: 5,
	})
	return &harness{bot: b, msg: msg, rec: rec}
}

func (h *harness) say(from int64, text string) {
	h.bot.HandleMessage(context.Background(), notifier.Message{ChatID: chatID, UserID: from, Text: text})
}

func TestConversation_FullFlow(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Price: 1.0842})

	h.say(userID, "/start")
	if !strings.Contains(h.msg.last().text, "Welcome") {
		t.Fatalf("start reply = %q", h.msg.last().text)
	}

	h.say(userID, "/getsignal")
	if !strings.HasPrefix(h.msg.last().text, "Please type a valid pair") {
		t.Fatalf("getsignal reply = %q", h.msg.last().text)
	}

	h.say(userID, "EURUSD-OTC")
	if h.msg.last().text != notifier.MsgOTCRejected {
		t.Errorf("otc reply = %q", h.msg.last().text)
	}
	h.say(userID, "DOGEUSD")
	if h.msg.last().text != notifier.MsgInvalidPair {
		t.Errorf("invalid pair reply = %q", h.msg.last().text)
	}

	h.say(userID, " eurusd ")
	last := h.msg.last()
	if last.text != notifier.MsgTimeframePrompt {
		t.Fatalf("pair reply = %q", last.text)
	}
	if _, ok := last.markup.(notifier.ReplyKeyboard); !ok {
		t.Errorf("timeframe prompt without keyboard: %#v", last.markup)
	}

	h.say(userID, "H1")
	if h.msg.last().text != notifier.MsgInvalidTimeframe {
		t.Errorf("invalid tf reply = %q", h.msg.last().text)
	}

	h.say(userID, "m5")
	if h.msg.last().text != notifier.MsgCountryPrompt {
		t.Fatalf("tf reply = %q", h.msg.last().text)
	}

	h.msg.reset()
	h.say(userID, "bangladesh")
	h.bot.Wait()

	texts := h.msg.texts()
	if len(texts) < 3 {
		t.Fatalf("expected status, signal and follow-up, got %q", texts)
	}
	if texts[0] != "🔍 Analyzing EURUSD on M5... Please wait." {
		t.Errorf("status = %q", texts[0])
	}
	if !strings.Contains(texts[1], "Signal Type:") || !strings.Contains(texts[1], "Technical Rationale:") {
		t.Errorf("signal message = %q", texts[1])
	}
	if texts[len(texts)-1] != notifier.MsgAnotherSignal {
		t.Errorf("last message = %q", texts[len(texts)-1])
	}
	if len(h.msg.deleted) != 1 {
		t.Errorf("deleted = %v, want the status message", h.msg.deleted)
	}

	ctx := context.Background()
	if n, _ := h.rec.CountUsageToday(ctx, userID); n != 1 {
		t.Errorf("usage = %d, want 1", n)
	}
	if n, _ := h.rec.CountSignalsSince(ctx, time.Now().Add(-time.Hour)); n != 1 {
		t.Errorf("logged signals = %d, want 1", n)
	}

	// conversation is over
	h.say(userID, "EURUSD")
	if h.msg.last().text != notifier.MsgStartConversation {
		t.Errorf("text after analysis = %q", h.msg.last().text)
	}
}

func TestConversation_FetchError(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Err: errors.New("deriv unavailable")})

	for _, text := range []string{"/getsignal", "BTCUSDT", "M15", "Japan"} {
		h.say(userID, text)
	}
	h.bot.Wait()

	texts := h.msg.texts()
	found := false
	for _, txt := range texts {
		if strings.HasPrefix(txt, "❌ Error while processing signal:") && strings.Contains(txt, "deriv unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no error reply in %q", texts)
	}
	if n, _ := h.rec.CountUsageToday(context.Background(), userID); n != 0 {
		t.Errorf("failed analysis consumed quota: %d", n)
	}
	if len(h.msg.deleted) != 1 {
		t.Errorf("status message not deleted: %v", h.msg.deleted)
	}
}

func TestQuota(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Price: 1.2})
	ctx := context.Background()

	h.rec.EnsureUser(ctx, userID)
	for i := 0; i < 5; i++ {
		h.rec.RecordUsage(ctx, userID)
	}

	// first day: unlimited
	h.say(userID, "/getsignal")
	if !strings.HasPrefix(h.msg.last().text, "Please type a valid pair") {
		t.Fatalf("first-day user limited: %q", h.msg.last().text)
	}
	h.say(userID, "/cancel")

	// from the second day on the limit applies
	h.bot.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	h.say(userID, "/getsignal")
	if !strings.HasPrefix(h.msg.last().text, "Your daily limit has been reached") {
		t.Fatalf("limit not applied: %q", h.msg.last().text)
	}
	if !strings.Contains(h.msg.last().text, "@owner") {
		t.Errorf("limit message lacks owner contact: %q", h.msg.last().text)
	}

	// VIPs are never limited
	h.rec.SetVIP(ctx, userID, 3)
	h.say(userID, "/getsignal")
	if !strings.HasPrefix(h.msg.last().text, "Please type a valid pair") {
		t.Fatalf("vip limited: %q", h.msg.last().text)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Price: 1})

	h.say(userID, "/cancel")
	if h.msg.last().text != notifier.MsgNothingToCancel {
		t.Errorf("reply = %q", h.msg.last().text)
	}
	h.say(userID, "/getsignal")
	h.say(userID, "/cancel")
	if h.msg.last().text != notifier.MsgCancelled {
		t.Errorf("reply = %q", h.msg.last().text)
	}
	h.say(userID, "EURUSD")
	if h.msg.last().text != notifier.MsgStartConversation {
		t.Errorf("session survived cancel: %q", h.msg.last().text)
	}
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t, &collector.MockFetcher{Price: 1})

	h.say(userID, "/vipstats")
	if len(h.msg.texts()) != 0 {
		t.Fatalf("non-admin got a reply: %q", h.msg.texts())
	}

	tests := []struct {
		cmd    string
		prefix string
	}{
		{"/viplist", "No active VIPs."},
		{"/setvip", notifier.MsgUsageSetVIP},
		{"/setvip abc 3", "❌ invalid user id"},
		{"/setvip 42 30", "✅ VIP set for 42 for 30 days"},
		{"/viplist", "Active VIP users:\n- 42 (expires: "},
		{"/vipstats", "VIP: 1 / Total users: 1"},
		{"/removevip 42", "✅ VIP removed for 42."},
		{"/vipstats", "VIP: 0 / Total users: 1"},
		{"/outcome 1", notifier.MsgUsageOutcome},
		{"/outcome 1 MAYBE", notifier.MsgUsageOutcome},
		{"/outcome 999 WIN", "❌ signal not found"},
	}
	for _, tt := range tests {
		h.say(adminID, tt.cmd)
		if got := h.msg.last().text; !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("%s -> %q, want prefix %q", tt.cmd, got, tt.prefix)
		}
	}
}

func TestTitleCase(t *testing.T) {
	for in, want := range map[string]string{
		"bangladesh":        "Bangladesh",
		"  united  KINGDOM": "United Kingdom",
		"":                  "",
	} {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
