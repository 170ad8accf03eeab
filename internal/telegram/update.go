package telegram

import "strings"

type update struct {
	UpdateID      int64            `json:"update_id"`
	Message       *incomingMessage `json:"message"`
	CallbackQuery *callbackQuery   `json:"callback_query"`
}

type incomingMessage struct {
	MessageID       int    `json:"message_id"`
	From            *user  `json:"from"`
	Chat            chat   `json:"chat"`
	Text            string `json:"text"`
	MessageThreadID int64  `json:"message_thread_id"`
	IsTopicMessage  bool   `json:"is_topic_message"`
}

type chat struct {
	ID int64 `json:"id"`
}

type user struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
}

type callbackQuery struct {
	ID      string           `json:"id"`
	From    *user            `json:"from"`
	Message *incomingMessage `json:"message"`
	Data    string           `json:"data"`
}

// threadID maps a message to its session thread: the topic id for forum
// topic messages, 0 for everything else (the main chat).
func (m *incomingMessage) threadID() int64 {
	if m.IsTopicMessage && m.MessageThreadID != 0 {
		return m.MessageThreadID
	}
	return 0
}

// splitCommand extracts a bot command and its argument string from message
// text. A trailing @botname mention on the command is ignored.
func splitCommand(text string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}
