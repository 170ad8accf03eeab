// Package scheduler drives the periodic triggers: the hourly notification
// tick and a minute heartbeat used only for liveness.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	notifyFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetNotifyFunction sets the callback fired at the top of every hour.
func (s *Scheduler) SetNotifyFunction(f func(ctx context.Context) error) {
	s.notifyFunc = f
}

func (s *Scheduler) Start() error {
	if s.notifyFunc == nil {
		log.Println("⚠️ Notify function not set, scheduler will not deliver subscriptions")
		return nil
	}

	// Top of every hour: subscribers whose local notify hour matches get
	// their daily listing.
	_, err := s.cron.AddFunc("0 * * * *", func() {
		log.Println("🕐 Hourly notification tick")
		if err := s.notifyFunc(s.ctx); err != nil {
			log.Printf("❌ Notification tick failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("* * * * *", func() {
		log.Println("💓 Heartbeat")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("📅 Scheduler started - subscriptions are checked at the top of every hour")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
