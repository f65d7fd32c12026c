// Package auth runs the login and registration conversations.
package auth

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
	"github.com/luct-reporting/luct-bot/internal/session"
	"github.com/luct-reporting/luct-bot/internal/tg"
)

// API is what the flows need from the reporting API.
type API interface {
	Login(ctx context.Context, in models.Credentials) (string, error)
	Register(ctx context.Context, in models.Registration) (string, error)
}

type kind int

const (
	kindLogin kind = iota + 1
	kindRegister
)

type step int

const (
	stepUsername step = iota + 1
	stepPassword
	stepRole
)

const (
	cbCancel   = "auth_cancel"
	cbRolePref = "auth_role_"
)

type state struct {
	kind     kind
	step     step
	username string
	password string
	msgID    int
}

var states sync.Map // chatID(int64) -> *state

func getState(chatID int64) (*state, bool) {
	v, ok := states.Load(chatID)
	if !ok {
		return nil, false
	}
	return v.(*state), true
}
func setState(chatID int64, st *state) { states.Store(chatID, st) }
func clearState(chatID int64)          { states.Delete(chatID) }

// Active reports whether chatID is in the middle of a login or registration.
func Active(chatID int64) bool {
	_, ok := getState(chatID)
	return ok
}

// Cancel drops any running flow silently.
func Cancel(chatID int64) { clearState(chatID) }

// IsCallback reports whether data belongs to these flows.
func IsCallback(data string) bool {
	return data == cbCancel || strings.HasPrefix(data, cbRolePref)
}

// Flow drives both conversations for one bot.
type Flow struct {
	Bot tg.Bot
	API API
	Log *zap.Logger
	// OnLogin runs after a successful login, e.g. to show the home screen.
	OnLogin func(ctx context.Context, chatID int64, sess *session.Session)
}

func (f *Flow) send(chatID int64, text string, markup any) int {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	out, err := tg.Send(f.Bot, msg)
	if err != nil {
		metrics.HandlerErrors.Inc()
	}
	return out.MessageID
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(fsmutil.CancelRow(cbCancel))
}

func (f *Flow) StartLogin(chatID int64) {
	st := &state{kind: kindLogin, step: stepUsername}
	setState(chatID, st)
	st.msgID = f.send(chatID, "🔐 Login\nEnter your username:", cancelKeyboard())
}

func (f *Flow) StartRegister(chatID int64) {
	st := &state{kind: kindRegister, step: stepUsername}
	setState(chatID, st)
	st.msgID = f.send(chatID, "📝 Register\nChoose a username:", cancelKeyboard())
}

// HandleText consumes msg if the chat is inside a flow.
func (f *Flow) HandleText(ctx context.Context, sess *session.Session, msg *tgbotapi.Message) bool {
	chatID := msg.Chat.ID
	st, ok := getState(chatID)
	if !ok {
		return false
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		f.cancel(chatID, st)
		return true
	}

	switch st.step {
	case stepUsername:
		if text == "" {
			f.send(chatID, "Username cannot be empty. Try again:", cancelKeyboard())
			return true
		}
		st.username = text
		st.step = stepPassword
		f.send(chatID, "Enter your password:", cancelKeyboard())
	case stepPassword:
		// keep the password out of the chat history
		if _, err := tg.Request(f.Bot, tgbotapi.NewDeleteMessage(chatID, msg.MessageID)); err != nil {
			metrics.HandlerErrors.Inc()
		}
		if text == "" {
			f.send(chatID, "Password cannot be empty. Try again:", cancelKeyboard())
			return true
		}
		st.password = text
		if st.kind == kindLogin {
			f.finishLogin(ctx, sess, chatID, st)
			return true
		}
		st.step = stepRole
		st.msgID = f.send(chatID, "Choose your role:", roleKeyboard())
	case stepRole:
		f.send(chatID, "Please pick a role with the buttons above.", nil)
	}
	return true
}

// HandleCallback handles role picks and cancel buttons.
func (f *Flow) HandleCallback(ctx context.Context, sess *session.Session, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	if _, err := tg.Request(f.Bot, tgbotapi.NewCallback(cb.ID, "")); err != nil {
		metrics.HandlerErrors.Inc()
	}
	st, ok := getState(chatID)
	if !ok {
		fsmutil.DisableMarkup(f.Bot, chatID, cb.Message.MessageID)
		return
	}
	if cb.Data == cbCancel {
		f.cancel(chatID, st)
		return
	}
	if st.step != stepRole {
		return
	}
	role, valid := models.ParseRole(strings.TrimPrefix(cb.Data, cbRolePref))
	if !valid {
		return
	}
	fsmutil.DisableMarkup(f.Bot, chatID, cb.Message.MessageID)
	f.finishRegister(ctx, chatID, st, role)
}

func (f *Flow) cancel(chatID int64, st *state) {
	if st.msgID != 0 {
		fsmutil.DisableMarkup(f.Bot, chatID, st.msgID)
	}
	clearState(chatID)
	f.send(chatID, "🚫 Cancelled.", nil)
}

func roleKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range models.Roles {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(r.Title(), cbRolePref+string(r)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, fsmutil.CancelRow(cbCancel))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func errText(err error) string {
	return "⚠️ " + screen.Message(err)
}
