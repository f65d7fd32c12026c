// Package tgfake records what handlers send to Telegram.
package tgfake

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (b *Bot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *Bot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *Bot) Sent() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

func (b *Bot) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
}

// Messages returns every plain message sent, in order.
func (b *Bot) Messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range b.Sent() {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

// Texts returns the text of every message and text edit.
func (b *Bot) Texts() []string {
	var out []string
	for _, c := range b.Sent() {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

// LastText is the newest message text, "" when nothing was sent.
func (b *Bot) LastText() string {
	texts := b.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (b *Bot) Documents() []tgbotapi.DocumentConfig {
	var out []tgbotapi.DocumentConfig
	for _, c := range b.Sent() {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

// Buttons returns the inline buttons of the newest message that has any.
func (b *Bot) Buttons() []tgbotapi.InlineKeyboardButton {
	sent := b.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		m, ok := sent[i].(tgbotapi.MessageConfig)
		if !ok {
			continue
		}
		kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		var out []tgbotapi.InlineKeyboardButton
		for _, row := range kb.InlineKeyboard {
			out = append(out, row...)
		}
		return out
	}
	return nil
}

// HasButton reports whether the newest inline keyboard carries data.
func (b *Bot) HasButton(data string) bool {
	for _, btn := range b.Buttons() {
		if btn.CallbackData != nil && *btn.CallbackData == data {
			return true
		}
	}
	return false
}

// Message builds an incoming text message.
func Message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID},
		Text:      text,
	}
}

// Callback builds an inline button press on message 1.
func Callback(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: Message(chatID, ""),
		Data:    data,
	}
}
