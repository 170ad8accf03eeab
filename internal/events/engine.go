// Package events holds the pagination/delivery engine: it turns a time
// window plus an offset cursor into rendered chat messages and manages the
// "Load More" continuation across turns.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"sola-events-bot/internal/sola"
)

const appPromotion = "Check out app.sola.day... to see more!"

// EventSource is the slice of the events API the engine consumes.
type EventSource interface {
	Events(ctx context.Context, groupIDs []int64, start, end time.Time, limit, offset int) sola.Page
	GroupInfos(ctx context.Context, ids []int64) []sola.GroupInfo
}

// Messenger is the outbound side effect surface. SendLoadMore returns the
// id of the sent continuation message; Delete failures are the caller's
// business to ignore.
type Messenger interface {
	SendMarkdown(dst Destination, text string) error
	SendPlain(dst Destination, text string) error
	SendLoadMore(dst Destination, text string) (int, error)
	Delete(chatID int64, messageID int) error
}

// Destination addresses a chat and optionally a forum topic inside it.
// ThreadID 0 means the main chat.
type Destination struct {
	ChatID   int64
	ThreadID int64
}

// Window is the immutable query parameter set for one listing request.
type Window struct {
	GroupIDs []int64
	Start    time.Time
	End      time.Time
}

// Cursor tracks pagination progress for one chat/thread. The zero value is
// the Idle state: nothing shown, no continuation pending.
type Cursor struct {
	Offset            int
	LoadMoreMessageID int
	WindowStart       time.Time
	WindowEnd         time.Time
}

type Engine struct {
	src   EventSource
	msg   Messenger
	limit int
}

func NewEngine(src EventSource, msg Messenger, limit int) *Engine {
	if limit <= 0 {
		limit = 10
	}
	return &Engine{src: src, msg: msg, limit: limit}
}

// DeliverWindow fetches the page at cur.Offset, replaces any outstanding
// "Load More" prompt, and sends the rendered listing. The returned cursor
// carries the advanced offset and, when a further page exists, the id of
// the new continuation message. An empty page sends a "no events" notice;
// at offset 0 that resets the cursor to Idle.
func (e *Engine) DeliverWindow(ctx context.Context, dst Destination, w Window, cur Cursor) (Cursor, error) {
	page := e.src.Events(ctx, w.GroupIDs, w.Start, w.End, e.limit, cur.Offset)

	// The previous continuation is stale as soon as this delivery starts.
	// Deletion is best-effort: a failure never aborts the delivery.
	if cur.LoadMoreMessageID != 0 {
		if err := e.msg.Delete(dst.ChatID, cur.LoadMoreMessageID); err != nil {
			log.Printf("events: failed to delete previous load-more message %d: %v", cur.LoadMoreMessageID, err)
		}
	}

	if len(page.Events) == 0 {
		if err := e.msg.SendPlain(dst, "🙈 No events today. "+appPromotion); err != nil {
			return cur, err
		}
		if cur.Offset == 0 {
			return Cursor{}, nil
		}
		// The window's tail shrank under us: keep the offset, the
		// continuation message is already gone.
		next := cur
		next.LoadMoreMessageID = 0
		return next, nil
	}

	groupName := "app"
	if infos := e.src.GroupInfos(ctx, w.GroupIDs); len(infos) > 0 && infos[0].Username != "" {
		groupName = infos[0].Username
	}

	if err := e.msg.SendMarkdown(dst, e.render(page, cur.Offset, groupName)); err != nil {
		return cur, err
	}

	next := Cursor{
		Offset:      cur.Offset + len(page.Events),
		WindowStart: w.Start,
		WindowEnd:   w.End,
	}
	if !page.HasMore {
		return next, nil
	}
	id, err := e.msg.SendLoadMore(dst, "More results available! "+appPromotion)
	if err != nil {
		return next, err
	}
	next.LoadMoreMessageID = id
	return next, nil
}

func (e *Engine) render(page sola.Page, offset int, groupName string) string {
	blocks := make([]string, len(page.Events))
	for i, ev := range page.Events {
		blocks[i] = FormatEvent(ev, groupName)
	}
	body := strings.Join(blocks, "\n\n")

	var out string
	if offset == 0 {
		count := fmt.Sprintf("%d", len(page.Events))
		if page.HasMore {
			count = fmt.Sprintf("more than %d", len(page.Events))
		}
		intro := fmt.Sprintf(
			"Hey there, early birds and night owls! Guess what? We've got a day crammed with awesomeness %s fantastic events spread across %d lively spots. Dive in and enjoy!",
			count, distinctLocations(page.Events))
		out += bold(esc(intro+"\n")) + underline(esc(fmt.Sprintf("https://%s.sola.day\n\n", groupName)))
	}
	out += body
	if !page.HasMore {
		out += italic(esc("\n\nThat's all for now!" + appPromotion))
	}
	return out
}

func distinctLocations(evs []sola.Event) int {
	seen := make(map[string]struct{})
	for _, ev := range evs {
		loc := ""
		if ev.Location != nil {
			loc = *ev.Location
		}
		seen[loc] = struct{}{}
	}
	return len(seen)
}
