package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sola-events-bot/internal/sola"
)

type fakeSource struct {
	page      sola.Page
	infos     []sola.GroupInfo
	gotLimit  int
	gotOffset int
}

func (f *fakeSource) Events(_ context.Context, _ []int64, _, _ time.Time, limit, offset int) sola.Page {
	f.gotLimit = limit
	f.gotOffset = offset
	return f.page
}

func (f *fakeSource) GroupInfos(_ context.Context, _ []int64) []sola.GroupInfo {
	return f.infos
}

type fakeMessenger struct {
	markdown  []string
	plain     []string
	loadMore  []string
	deleted   []int
	deleteErr error
	nextID    int
}

func (f *fakeMessenger) SendMarkdown(_ Destination, text string) error {
	f.markdown = append(f.markdown, text)
	return nil
}

func (f *fakeMessenger) SendPlain(_ Destination, text string) error {
	f.plain = append(f.plain, text)
	return nil
}

func (f *fakeMessenger) SendLoadMore(_ Destination, text string) (int, error) {
	f.loadMore = append(f.loadMore, text)
	f.nextID++
	return f.nextID + 1000, nil
}

func (f *fakeMessenger) Delete(_ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return f.deleteErr
}

func strp(s string) *string { return &s }

func page(n int, hasMore bool) sola.Page {
	p := sola.Page{HasMore: hasMore}
	for i := 0; i < n; i++ {
		p.Events = append(p.Events, sola.Event{
			ID:        int64(i + 1),
			Title:     "Event",
			StartTime: "2024-06-01T10:00:00",
			EndTime:   "2024-06-01T11:00:00",
			Location:  strp("Hall A"),
		})
	}
	return p
}

func testWindow() Window {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return Window{GroupIDs: []int64{7}, Start: start, End: start.AddDate(0, 0, 1)}
}

func TestDeliverWindow_EmptyFirstPage(t *testing.T) {
	src := &fakeSource{}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	cur, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(m.plain) != 1 || !strings.Contains(m.plain[0], "No events today") {
		t.Fatalf("want one no-events notice, got %+v", m.plain)
	}
	if len(m.markdown) != 0 || len(m.loadMore) != 0 {
		t.Fatalf("unexpected extra messages: md=%d lm=%d", len(m.markdown), len(m.loadMore))
	}
	if cur != (Cursor{}) {
		t.Fatalf("want Idle cursor, got %+v", cur)
	}
}

func TestDeliverWindow_EmptyLaterPageKeepsOffset(t *testing.T) {
	src := &fakeSource{}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	cur, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{Offset: 10, LoadMoreMessageID: 777})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(m.plain) != 1 || !strings.Contains(m.plain[0], "No events today") {
		t.Fatalf("want no-events notice, got %+v", m.plain)
	}
	if len(m.markdown) != 0 {
		t.Fatalf("empty page rendered content: %+v", m.markdown)
	}
	if len(m.deleted) != 1 || m.deleted[0] != 777 {
		t.Fatalf("stale continuation not deleted: %v", m.deleted)
	}
	if cur.Offset != 10 || cur.LoadMoreMessageID != 0 {
		t.Fatalf("offset should survive an empty tail: %+v", cur)
	}
}

func TestDeliverWindow_HasMoreSendsTwoMessages(t *testing.T) {
	src := &fakeSource{page: page(10, true), infos: []sola.GroupInfo{{Username: "mygroup"}}}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	cur, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if src.gotLimit != 10 || src.gotOffset != 0 {
		t.Fatalf("bad fetch args: limit=%d offset=%d", src.gotLimit, src.gotOffset)
	}
	if len(m.markdown) != 1 || len(m.loadMore) != 1 {
		t.Fatalf("want content + load-more, got md=%d lm=%d", len(m.markdown), len(m.loadMore))
	}
	if cur.Offset != 10 {
		t.Fatalf("offset not advanced by page size: %d", cur.Offset)
	}
	if cur.LoadMoreMessageID == 0 {
		t.Fatal("continuation id not recorded")
	}
	if !cur.WindowStart.Equal(testWindow().Start) || !cur.WindowEnd.Equal(testWindow().End) {
		t.Fatalf("window not carried on cursor: %+v", cur)
	}
}

func TestDeliverWindow_BannerOnlyOnFirstPage(t *testing.T) {
	src := &fakeSource{page: page(10, true), infos: []sola.GroupInfo{{Username: "g"}}}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	if _, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(m.markdown[0], "more than 10") {
		t.Fatalf("first page should carry approximate-count banner: %q", m.markdown[0])
	}

	m2 := &fakeMessenger{}
	e2 := NewEngine(src, m2, 10)
	if _, err := e2.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{Offset: 10}); err != nil {
		t.Fatalf("deliver page 2: %v", err)
	}
	if strings.Contains(m2.markdown[0], "Hey there") {
		t.Fatalf("banner leaked onto a continuation page: %q", m2.markdown[0])
	}
}

func TestDeliverWindow_LastPageClosesWithoutContinuation(t *testing.T) {
	src := &fakeSource{page: page(3, false), infos: []sola.GroupInfo{{Username: "g"}}}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	cur, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{Offset: 10})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(m.loadMore) != 0 {
		t.Fatal("exhausted page must not offer load-more")
	}
	if !strings.Contains(m.markdown[0], "That's all for now") {
		t.Fatalf("closing remark missing: %q", m.markdown[0])
	}
	if cur.LoadMoreMessageID != 0 || cur.Offset != 13 {
		t.Fatalf("unexpected cursor: %+v", cur)
	}
}

func TestDeliverWindow_ExactCountOnSingleFullWindow(t *testing.T) {
	src := &fakeSource{page: page(5, false), infos: []sola.GroupInfo{{Username: "g"}}}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	if _, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.Contains(m.markdown[0], "5 fantastic events") || strings.Contains(m.markdown[0], "more than") {
		t.Fatalf("want exact count banner: %q", m.markdown[0])
	}
}

func TestDeliverWindow_DeletesPriorContinuation(t *testing.T) {
	src := &fakeSource{page: page(2, false), infos: []sola.GroupInfo{{Username: "g"}}}
	m := &fakeMessenger{}
	e := NewEngine(src, m, 10)

	if _, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{Offset: 10, LoadMoreMessageID: 555}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(m.deleted) != 1 || m.deleted[0] != 555 {
		t.Fatalf("want exactly one delete of 555, got %v", m.deleted)
	}
}

func TestDeliverWindow_DeleteFailureIsSwallowed(t *testing.T) {
	src := &fakeSource{page: page(2, false), infos: []sola.GroupInfo{{Username: "g"}}}
	m := &fakeMessenger{deleteErr: errors.New("message to delete not found")}
	e := NewEngine(src, m, 10)

	cur, err := e.DeliverWindow(context.Background(), Destination{ChatID: 1}, testWindow(), Cursor{Offset: 2, LoadMoreMessageID: 9})
	if err != nil {
		t.Fatalf("delete failure must not abort delivery: %v", err)
	}
	if len(m.markdown) != 1 {
		t.Fatal("content not delivered after failed delete")
	}
	if cur.Offset != 4 {
		t.Fatalf("cursor not advanced: %+v", cur)
	}
}
