package fsmutil

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/tg"
)

// pending guards heavy actions against double clicks.
// Key is the chat id, value names the action (e.g. "export:reports").
var pending = struct {
	mu sync.Mutex
	m  map[int64]string
}{
	m: make(map[int64]string),
}

// SetPending marks the chat busy with key. It returns false when something
// is already running there.
func SetPending(chatID int64, key string) bool {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if _, ok := pending.m[chatID]; ok {
		return false
	}
	pending.m[chatID] = key
	return true
}

// ClearPending drops the mark if key matches.
func ClearPending(chatID int64, key string) {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if cur, ok := pending.m[chatID]; ok && cur == key {
		delete(pending.m, chatID)
	}
}

// DisableMarkup removes the inline keyboard of a message so a one-shot
// prompt cannot be clicked twice.
func DisableMarkup(bot tg.Bot, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := tg.Request(bot, edit); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// CancelRow is the standard "Cancel" row for flows.
func CancelRow(cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelData),
	)
}

// SkipCancelRow offers "Skip" next to "Cancel" on optional steps.
func SkipCancelRow(skipData, cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", skipData),
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelData),
	)
}

// YesNoRow is the inline confirmation used before deletes.
func YesNoRow(yesData, noData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Yes", yesData),
		tgbotapi.NewInlineKeyboardButtonData("✖️ No", noData),
	)
}

// IsCancelText matches a typed cancel on text steps: "cancel" or "/cancel",
// case and spaces ignored.
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "/cancel" || s == "cancel"
}

// IsKeepText is the "keep the current value" answer on edit steps.
func IsKeepText(s string) bool {
	return strings.TrimSpace(s) == "."
}

// IsSkipText is the "leave empty" answer on optional steps.
func IsSkipText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "-" || s == "skip" || s == "/skip"
}
