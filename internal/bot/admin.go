package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
)

func (b *Bot) handleAdmin(ctx context.Context, m notifier.Message, cmd string, args []string) {
	var text string
	switch cmd {
	case "setvip":
		text = b.setVIP(ctx, args)
	case "removevip":
		text = b.removeVIP(ctx, args)
	case "viplist":
		list, err := b.rec.ListVIP(ctx)
		if err != nil {
			text = notifier.FormatAdminError(err)
			break
		}
		text = notifier.FormatVIPList(list)
	case "vipstats":
		st, err := b.rec.VIPStats(ctx)
		if err != nil {
			text = notifier.FormatAdminError(err)
			break
		}
		text = notifier.FormatVIPStats(st)
	case "outcome":
		text = b.recordOutcome(ctx, args)
	}
	logger.Info(ctx, "admin command", "command", cmd, "admin_id", m.UserID, "args", strings.Join(args, " "))
	b.reply(ctx, m.ChatID, text, nil)
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

func (b *Bot) setVIP(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return notifier.MsgUsageSetVIP
	}
	target, err := parseUserID(args[0])
	if err != nil {
		return notifier.FormatAdminError(err)
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return notifier.FormatAdminError(fmt.Errorf("invalid days %q", args[1]))
	}
	days = max(1, days)
	exp, err := b.rec.SetVIP(ctx, target, days)
	if err != nil {
		return notifier.FormatAdminError(err)
	}
	return notifier.FormatVIPSet(target, days, exp)
}

func (b *Bot) removeVIP(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return notifier.MsgUsageRemoveVIP
	}
	target, err := parseUserID(args[0])
	if err != nil {
		return notifier.FormatAdminError(err)
	}
	if err := b.rec.RemoveVIP(ctx, target); err != nil {
		return notifier.FormatAdminError(err)
	}
	return notifier.FormatVIPRemoved(target)
}

func (b *Bot) recordOutcome(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return notifier.MsgUsageOutcome
	}
	signalID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return notifier.FormatAdminError(fmt.Errorf("invalid signal id %q", args[0]))
	}
	result, ok := model.ParseOutcomeResult(args[1])
	if !ok {
		return notifier.MsgUsageOutcome
	}
	note := strings.Join(args[2:], " ")
	if err := b.rec.RecordOutcome(ctx, signalID, result, note); err != nil {
		return notifier.FormatAdminError(err)
	}
	return notifier.FormatOutcomeRecorded(signalID, result)
}
