package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"sola-events-bot/internal/config"
	"sola-events-bot/internal/scheduler"
	"sola-events-bot/internal/sola"
	"sola-events-bot/internal/storage"
	"sola-events-bot/internal/subscription"
	"sola-events-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	kv, err := storage.NewFileStore(cfg.SessionsFilePath)
	if err != nil {
		log.Fatalf("failed to init session store: %v", err)
	}
	store := subscription.NewStore(kv)
	client := sola.NewClient(cfg.GraphURL, cfg.DefaultTimezone)

	bot, err := telegram.New(cfg.TelegramBotToken, client, store, cfg.PageSize)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New()
	sched.SetNotifyFunction(bot.NotifySubscribers)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	bot.Start(context.Background())
}
