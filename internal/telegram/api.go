package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// requester is the slice of the Bot API client the bot talks through. The
// bot works with raw requests because forum-topic fields
// (message_thread_id, is_topic_message) postdate the pinned library's typed
// structs; decoding updates ourselves keeps them visible.
type requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}
