package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Events API
	GraphURL        string `env:"GRAPH_URL" envDefault:"https://graph.sola.day/v1/graphql"`
	DefaultTimezone string `env:"DEFAULT_TIMEZONE" envDefault:"Asia/Shanghai"`
	PageSize        int    `env:"PAGE_SIZE" envDefault:"10"`

	// Storage
	SessionsFilePath string `env:"SESSIONS_FILE_PATH" envDefault:"data/sessions.json"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
