package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sola-events-bot/internal/events"
	"sola-events-bot/internal/subscription"
)

const startGreeting = `👋 Welcome to the Sola Events Bot!

To get started, you can use the following commands:

- /subs <group_name>: Subscribe to daily event updates for a specific group. You can also customize notification settings with "hour=<number>" and/or "days=<number>". For example, "/subs my_group hour=8 days=3".

- /query <group_name>: Query activity details for the specified group. Use "start=<date>", "end=<date>", and/or "days=<number>" to filter results. For example, "/query my_group start=2023-10-01 end=2023-10-31".

- /status: Check the current subscription status for the channel, including the groups subscribed to and their notification settings.

- /list: List all ongoing group activities that are currently available for subscription.`

func (b *Bot) handleMessage(ctx context.Context, m *incomingMessage) {
	cmd, args, ok := splitCommand(m.Text)
	if !ok {
		return
	}
	dst := events.Destination{ChatID: m.Chat.ID, ThreadID: m.threadID()}
	log.Printf("command /%s from chat %d thread %d", cmd, dst.ChatID, dst.ThreadID)

	switch cmd {
	case "start":
		b.sendPlain(dst, startGreeting)
	case "list":
		b.sendHTML(dst, events.FormatGroups(b.client.ListGroups(ctx)))
	case "subs":
		b.handleSubscribe(ctx, dst, args, true)
	case "unsubs":
		b.handleSubscribe(ctx, dst, args, false)
	case "query":
		b.handleQuery(ctx, dst, args)
	case "status":
		b.handleStatus(ctx, dst)
	case "global":
		b.handleGlobal(dst)
	case "clean":
		b.handleClean(dst)
	}
}

// resolveGroup turns user input into a group id: name lookup first, then a
// literal numeric id.
func (b *Bot) resolveGroup(ctx context.Context, input string) (int64, bool) {
	if input == "" {
		return 0, false
	}
	if id, ok := b.client.GroupByName(ctx, input); ok {
		return id, true
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func kvArg(fields []string, key string) (string, bool) {
	for _, f := range fields {
		if v, ok := strings.CutPrefix(f, key+"="); ok {
			return v, true
		}
	}
	return "", false
}

func (b *Bot) handleSubscribe(ctx context.Context, dst events.Destination, args string, subscribe bool) {
	fields := strings.Fields(args)
	var groupInput string
	if len(fields) > 0 {
		groupInput = fields[0]
		fields = fields[1:]
	}
	groupID, ok := b.resolveGroup(ctx, groupInput)
	if !ok {
		b.sendPlain(dst, "❌ Invalid group ID. Please try again with /subs <groupId> or /unsubs <groupId>.")
		return
	}

	if !subscribe {
		if err := b.store.Unsubscribe(dst.ChatID, dst.ThreadID, groupID); err != nil {
			log.Printf("unsubscribe failed: %v", err)
			b.sendPlain(dst, "❌ Internal error. Please try again.")
			return
		}
		b.sendPlain(dst, "✅ Unsubscribed to daily event updates!")
		return
	}

	var hour, days *int
	if v, ok := kvArg(fields, "hour"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			b.sendPlain(dst, "❌ Invalid hour. Please enter a valid hour between 0 and 23.")
			return
		}
		hour = &n
	}
	if v, ok := kvArg(fields, "days"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			b.sendPlain(dst, "❌ Invalid days. Please enter a valid days bigger than 1.")
			return
		}
		days = &n
	}

	switch err := b.store.Subscribe(dst.ChatID, dst.ThreadID, groupID, hour, days); {
	case errors.Is(err, subscription.ErrInvalidHour):
		b.sendPlain(dst, "❌ Invalid hour. Please enter a valid hour between 0 and 23.")
	case errors.Is(err, subscription.ErrInvalidDays):
		b.sendPlain(dst, "❌ Invalid days. Please enter a valid days bigger than 1.")
	case err != nil:
		log.Printf("subscribe failed: %v", err)
		b.sendPlain(dst, "❌ Internal error. Please try again.")
	default:
		b.sendPlain(dst, "✅ Subscribed to daily event updates!")
	}
}

func (b *Bot) handleQuery(ctx context.Context, dst events.Destination, args string) {
	fields := strings.Fields(args)
	var groupInput string
	if len(fields) > 0 {
		groupInput = fields[0]
		fields = fields[1:]
	}
	groupID, ok := b.resolveGroup(ctx, groupInput)
	if !ok {
		b.sendPlain(dst, "❌ Invalid group ID. Please try again with /query <groupId>.")
		return
	}

	loc := b.client.GroupTimezone(ctx, []int64{groupID})

	startInput := "today"
	if v, ok := kvArg(fields, "start"); ok {
		startInput = v
	}
	start, err := events.ParseDate(startInput, loc)
	if err != nil {
		b.sendPlain(dst, "❌ Invalid date input. Please try again.")
		return
	}

	var end time.Time
	if v, ok := kvArg(fields, "end"); ok {
		end, err = events.ParseDate(v, loc)
		if err != nil {
			b.sendPlain(dst, "❌ Invalid date input. Please try again.")
			return
		}
	} else {
		days := 1
		if v, ok := kvArg(fields, "days"); ok {
			days, err = strconv.Atoi(v)
			if err != nil || days < 1 {
				b.sendPlain(dst, "❌ Invalid date input. Please try again.")
				return
			}
		}
		_, end = events.DayWindow(start, days)
	}

	w := events.Window{GroupIDs: []int64{groupID}, Start: start, End: end}
	cur, err := b.engine.DeliverWindow(ctx, dst, w, events.Cursor{})
	if err != nil {
		log.Printf("query delivery failed: %v", err)
		return
	}
	if err := b.store.Update(dst.ChatID, dst.ThreadID, func(r *subscription.Record) {
		r.GroupID = groupID
		r.IsSubs = false
		applyCursor(r, cur)
	}); err != nil {
		log.Printf("failed to persist query cursor: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *callbackQuery) {
	defer b.answerCallback(cb.ID)
	if cb.Data != loadMoreCallback || cb.Message == nil {
		return
	}
	dst := events.Destination{ChatID: cb.Message.Chat.ID, ThreadID: cb.Message.threadID()}

	rec, ok, err := b.store.ClaimContinuation(dst.ChatID, dst.ThreadID)
	if err != nil {
		log.Printf("load_more: read state failed: %v", err)
		return
	}
	if !ok {
		// A concurrent press already consumed this continuation.
		return
	}

	groups := rec.GroupIDs()
	if !rec.IsSubs && rec.GroupID != 0 {
		groups = []int64{rec.GroupID}
	}

	w := events.Window{GroupIDs: groups}
	w.Start, err = time.Parse(time.RFC3339, rec.WindowStart)
	if err == nil {
		w.End, err = time.Parse(time.RFC3339, rec.WindowEnd)
	}
	if err != nil {
		// No stored window survives; fall back to today in the group's zone.
		loc := b.client.GroupTimezone(ctx, groups)
		w.Start, w.End = events.DayWindow(events.Midnight(time.Now().In(loc)), 1)
	}

	cur := events.Cursor{Offset: rec.Offset, LoadMoreMessageID: rec.LoadMoreMessageID, WindowStart: w.Start, WindowEnd: w.End}
	next, err := b.engine.DeliverWindow(ctx, dst, w, cur)
	if err != nil {
		log.Printf("load_more delivery failed: %v", err)
		return
	}
	if err := b.store.Update(dst.ChatID, dst.ThreadID, func(r *subscription.Record) {
		applyCursor(r, next)
	}); err != nil {
		log.Printf("failed to persist load_more cursor: %v", err)
	}
}

func (b *Bot) handleStatus(ctx context.Context, dst events.Destination) {
	rec, err := b.store.Get(dst.ChatID, dst.ThreadID)
	if err != nil {
		log.Printf("status: read state failed: %v", err)
		return
	}
	infos := b.client.GroupInfos(ctx, rec.GroupIDs())
	if len(infos) == 0 {
		b.sendPlain(dst, "No groups subscribed")
		return
	}
	lines := make([]string, len(infos))
	for i, info := range infos {
		lines[i] = tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, fmt.Sprintf(
			"- Group: %s\n- Notification Time: %d hour(s) (GMT %s)\n- Displayed Days: %d day(s) (starting from today)",
			info.Username, rec.NotifyHour, info.Timezone, rec.DisplayDays))
	}
	header := "Subscribed group:"
	if len(infos) > 1 {
		header = "Subscribed groups:"
	}
	if err := b.SendMarkdown(dst, header+"\n"+strings.Join(lines, "\n")); err != nil {
		log.Printf("failed to send status: %v", err)
	}
}

func (b *Bot) handleGlobal(dst events.Destination) {
	s, err := b.store.IndexString()
	if err != nil {
		log.Printf("global: %v", err)
		return
	}
	if s == "" {
		s = "none"
	}
	b.sendPlain(dst, s)
}

func (b *Bot) handleClean(dst events.Destination) {
	if err := b.store.ClearIndex(); err != nil {
		log.Printf("clean: %v", err)
		return
	}
	b.sendPlain(dst, "clean!")
}

func applyCursor(r *subscription.Record, c events.Cursor) {
	r.Offset = c.Offset
	r.LoadMoreMessageID = c.LoadMoreMessageID
	if c.WindowStart.IsZero() {
		r.WindowStart, r.WindowEnd = "", ""
		return
	}
	r.WindowStart = c.WindowStart.Format(time.RFC3339)
	r.WindowEnd = c.WindowEnd.Format(time.RFC3339)
}
