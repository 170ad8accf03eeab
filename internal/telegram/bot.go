package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sola-events-bot/internal/events"
	"sola-events-bot/internal/sola"
	"sola-events-bot/internal/subscription"
)

const loadMoreCallback = "load_more"

// solaAPI is everything the bot needs from the events API client.
type solaAPI interface {
	events.EventSource
	GroupByName(ctx context.Context, name string) (int64, bool)
	ListGroups(ctx context.Context) []sola.Group
	GroupTimezone(ctx context.Context, ids []int64) *time.Location
}

type Bot struct {
	api    requester
	client solaAPI
	store  *subscription.Store
	engine *events.Engine
}

func New(botToken string, client solaAPI, store *subscription.Store, pageSize int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("init bot api: %w", err)
	}
	b := &Bot{api: api, client: client, store: store}
	b.engine = events.NewEngine(client, b, pageSize)
	return b, nil
}

func (b *Bot) Start(ctx context.Context) {
	b.setupCommands()

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := b.fetchUpdates(offset)
		if err != nil {
			log.Printf("failed to fetch updates: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			switch {
			case u.Message != nil:
				b.handleMessage(ctx, u.Message)
			case u.CallbackQuery != nil:
				b.handleCallback(ctx, u.CallbackQuery)
			}
		}
	}
}

func (b *Bot) fetchUpdates(offset int64) ([]update, error) {
	params := make(tgbotapi.Params)
	params.AddNonZero64("offset", offset)
	params.AddNonZero("timeout", 60)
	resp, err := b.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, err
	}
	var ups []update
	if err := json.Unmarshal(resp.Result, &ups); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return ups, nil
}

func (b *Bot) setupCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start using the bot to receive greetings and instructions."},
		{Command: "list", Description: "List all ongoing group activities that are currently available for subscription."},
		{Command: "subs", Description: "<group name> Subscribe to activity updates for the specified group. Use `hour=<number>` and/or `days=<number>` to customize notification settings."},
		{Command: "query", Description: "<group name> Query activity details for the specified group. Use `start=<date>`, `end=<date>`, and/or `days=<number>` to filter results."},
		{Command: "status", Description: "Check the current subscription status for the channel, including the groups subscribed to and their notification settings."},
	}
	params := make(tgbotapi.Params)
	if err := params.AddInterface("commands", commands); err != nil {
		log.Printf("failed to encode commands: %v", err)
		return
	}
	if _, err := b.api.MakeRequest("setMyCommands", params); err != nil {
		log.Printf("failed to set commands: %v", err)
	}
}

// send posts a message and returns the sent message id. message_thread_id
// is attached only for topic destinations.
func (b *Bot) send(dst events.Destination, text, parseMode string, markup interface{}) (int, error) {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", dst.ChatID)
	params.AddNonEmpty("text", text)
	params.AddNonEmpty("parse_mode", parseMode)
	params.AddNonZero64("message_thread_id", dst.ThreadID)
	if markup != nil {
		if err := params.AddInterface("reply_markup", markup); err != nil {
			return 0, fmt.Errorf("encode markup: %w", err)
		}
	}
	resp, err := b.api.MakeRequest("sendMessage", params)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	var sent struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return 0, fmt.Errorf("decode sent message: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) SendMarkdown(dst events.Destination, text string) error {
	_, err := b.send(dst, text, "MarkdownV2", nil)
	return err
}

func (b *Bot) SendPlain(dst events.Destination, text string) error {
	_, err := b.send(dst, text, "", nil)
	return err
}

func (b *Bot) SendLoadMore(dst events.Destination, text string) (int, error) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Load More", loadMoreCallback),
		),
	)
	return b.send(dst, text, "", kb)
}

func (b *Bot) Delete(chatID int64, messageID int) error {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	_, err := b.api.MakeRequest("deleteMessage", params)
	return err
}

func (b *Bot) sendHTML(dst events.Destination, text string) {
	if _, err := b.send(dst, text, "HTML", nil); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendPlain(dst events.Destination, text string) {
	if err := b.SendPlain(dst, text); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) answerCallback(id string) {
	params := make(tgbotapi.Params)
	params.AddNonEmpty("callback_query_id", id)
	if _, err := b.api.MakeRequest("answerCallbackQuery", params); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}
