package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)

// SQLiteRecorder persists bot state to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info(context.Background(), "sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    INTEGER PRIMARY KEY,
			first_seen TEXT NOT NULL,
			country    TEXT,
			tz         TEXT,
			is_vip     INTEGER DEFAULT 0,
			vip_expiry TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_vip ON users(is_vip)`,

		`CREATE TABLE IF NOT EXISTS usage_logs (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			used_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_user_ts ON usage_logs(user_id, used_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			pair       TEXT,
			timeframe  TEXT,
			sent_at    TEXT NOT NULL,
			direction  TEXT,
			confidence INTEGER,
			risky      INTEGER,
			price      REAL,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(sent_at)`,

		`CREATE TABLE IF NOT EXISTS outcomes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id   INTEGER NOT NULL,
			result      TEXT,
			note        TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_signal ON outcomes(signal_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(s), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (r *SQLiteRecorder) EnsureUser(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(user_id, first_seen) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, formatTime(r.now()))
	return err
}

func (r *SQLiteRecorder) SetCountry(ctx context.Context, userID int64, country, tz string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET country = ?, tz = ? WHERE user_id = ?`,
		country, nullString(tz), userID)
	return err
}

func (r *SQLiteRecorder) FirstSeen(ctx context.Context, userID int64) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT first_seen FROM users WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse first_seen %q: %w", raw, err)
	}
	return t, true, nil
}

func (r *SQLiteRecorder) IsVIP(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var isVIP int
	var expiry sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT is_vip, vip_expiry FROM users WHERE user_id = ?`, userID).Scan(&isVIP, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if isVIP == 0 {
		return false, nil
	}
	if !expiry.Valid || expiry.String == "" {
		return true, nil
	}
	exp, err := parseTime(expiry.String)
	if err != nil {
		// unreadable expiry keeps the grant
		return true, nil
	}
	if r.now().After(exp) {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE users SET is_vip = 0, vip_expiry = NULL WHERE user_id = ?`, userID); err != nil {
			return false, fmt.Errorf("downgrade expired vip: %w", err)
		}
		logger.Info(ctx, "vip expired", "user_id", userID)
		return false, nil
	}
	return true, nil
}

func (r *SQLiteRecorder) SetVIP(ctx context.Context, userID int64, days int) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	exp := now.UTC().AddDate(0, 0, max(1, days))
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(user_id, first_seen, is_vip, vip_expiry) VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET is_vip = 1, vip_expiry = excluded.vip_expiry`,
		userID, formatTime(now), formatTime(exp))
	if err != nil {
		return time.Time{}, err
	}
	return exp, nil
}

func (r *SQLiteRecorder) RemoveVIP(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_vip = 0, vip_expiry = NULL WHERE user_id = ?`, userID)
	return err
}

// activeVIP matches users whose premium has not lapsed.
const activeVIP = `is_vip = 1 AND (vip_expiry IS NULL OR vip_expiry = '' OR vip_expiry > ?)`

func (r *SQLiteRecorder) ListVIP(ctx context.Context) ([]model.VIPEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, vip_expiry FROM users WHERE `+activeVIP+` ORDER BY user_id`,
		formatTime(r.now()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VIPEntry
	for rows.Next() {
		var e model.VIPEntry
		var expiry sql.NullString
		if err := rows.Scan(&e.UserID, &expiry); err != nil {
			return nil, err
		}
		if expiry.Valid && expiry.String != "" {
			if t, err := parseTime(expiry.String); err == nil {
				e.Expiry = t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) VIPStats(ctx context.Context) (model.VIPStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var st model.VIPStats
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+activeVIP, formatTime(r.now())).Scan(&st.VIP); err != nil {
		return st, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Total); err != nil {
		return st, err
	}
	return st, nil
}

func (r *SQLiteRecorder) ExpireVIPs(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_vip = 0, vip_expiry = NULL
		WHERE is_vip = 1 AND vip_expiry IS NOT NULL AND vip_expiry != '' AND vip_expiry <= ?`,
		formatTime(r.now()))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SQLiteRecorder) RecordUsage(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_logs(user_id, used_at) VALUES (?, ?)`, userID, formatTime(r.now()))
	return err
}

func (r *SQLiteRecorder) CountUsageToday(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.now().UTC().Format("2006-01-02")
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_logs WHERE user_id = ? AND substr(used_at, 1, 10) = ?`,
		userID, today).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) LogSignal(ctx context.Context, sig *model.SignalLog) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sentAt := sig.SentAt
	if sentAt.IsZero() {
		sentAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO signals
		(user_id, pair, timeframe, sent_at, direction, confidence, risky, price, message)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		sig.UserID, sig.Pair, sig.Timeframe, formatTime(sentAt), string(sig.Signal),
		sig.Confidence, boolToInt(sig.Risky), sig.Price, sig.Message,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRecorder) RecordOutcome(ctx context.Context, signalID int64, result model.OutcomeResult, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM signals WHERE id = ?`, signalID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrSignalNotFound, signalID)
	}
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO outcomes(signal_id, result, note, recorded_at) VALUES (?,?,?,?)`,
		signalID, string(result), note, formatTime(r.now()))
	return err
}

func (r *SQLiteRecorder) CountSignalsSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signals WHERE sent_at >= ?`, formatTime(since)).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRecorder) Close() error {
	logger.Info(context.Background(), "closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
