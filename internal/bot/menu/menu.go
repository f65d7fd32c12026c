// Package menu builds the reply keyboards from the navigation table.
package menu

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

const BtnLogout = "Logout"

const perRow = 2

// ForRole returns the menu for a role: its nav links two per row, plus
// Logout for signed-in chats.
func ForRole(role models.Role, authed bool) tgbotapi.ReplyKeyboardMarkup {
	links := routing.NavLinks(role, authed)
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(links); i += perRow {
		end := min(i+perRow, len(links))
		row := make([]tgbotapi.KeyboardButton, 0, perRow)
		for _, l := range links[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(l.Label))
		}
		rows = append(rows, row)
	}
	if authed {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnLogout)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// PathFor maps a menu button label back to its route. Labels are shared
// across roles, so the lookup does not need the role.
func PathFor(label string) (routing.Path, bool) {
	for _, role := range models.Roles {
		for _, l := range routing.NavLinks(role, true) {
			if l.Label == label {
				return l.Path, true
			}
		}
	}
	for _, l := range routing.NavLinks("", false) {
		if l.Label == label {
			return l.Path, true
		}
	}
	return "", false
}
