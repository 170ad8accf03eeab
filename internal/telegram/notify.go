package telegram

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sola-events-bot/internal/events"
	"sola-events-bot/internal/subscription"
)

// NotifySubscribers runs one notification tick: it enumerates the
// subscriptions due at the current hour and delivers each one's daily
// window in its own goroutine. A failing delivery is logged and does not
// affect the others.
func (b *Bot) NotifySubscribers(ctx context.Context) error {
	due, err := b.store.EnumerateDue(ctx, time.Now, b.client)
	if err != nil {
		return fmt.Errorf("enumerate due subscriptions: %w", err)
	}
	var wg sync.WaitGroup
	for _, e := range due {
		wg.Add(1)
		go func(e subscription.Entry) {
			defer wg.Done()
			if err := b.deliverSubscription(ctx, e); err != nil {
				log.Printf("notify %s failed: %v", subscription.Key(e.ChatID, e.ThreadID), err)
			}
		}(e)
	}
	wg.Wait()
	return nil
}

func (b *Bot) deliverSubscription(ctx context.Context, e subscription.Entry) error {
	groups := e.Record.GroupIDs()
	loc := b.client.GroupTimezone(ctx, groups)
	start, end := events.DayWindow(events.Midnight(time.Now().In(loc)), e.Record.DisplayDays)
	dst := events.Destination{ChatID: e.ChatID, ThreadID: e.ThreadID}

	// Each tick opens a fresh window, so delivery starts from offset 0.
	cur, err := b.engine.DeliverWindow(ctx, dst, events.Window{GroupIDs: groups, Start: start, End: end}, events.Cursor{})
	if err != nil {
		return err
	}
	return b.store.Update(e.ChatID, e.ThreadID, func(r *subscription.Record) {
		r.IsSubs = true
		applyCursor(r, cur)
	})
}
