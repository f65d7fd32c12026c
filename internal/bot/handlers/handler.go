package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/bot/auth"
	"github.com/luct-reporting/luct-bot/internal/bot/menu"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/screen"
	"github.com/luct-reporting/luct-bot/internal/session"
	"github.com/luct-reporting/luct-bot/internal/tg"
)

// ClientFactory builds an API client that reads its credential from tokens.
type ClientFactory func(tokens apiclient.TokenSource) *apiclient.Client

// Handler turns Telegram updates into screen operations. Callers must
// serialise updates per chat; different chats may run concurrently.
type Handler struct {
	bot       tg.Bot
	sessions  *session.Manager
	newClient ClientFactory
	exportDir string
	log       *zap.Logger
	auth      *auth.Flow

	mu sync.Mutex
	ws map[int64]*Workspace
}

func New(bot tg.Bot, sessions *session.Manager, newClient ClientFactory, exportDir string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		bot:       bot,
		sessions:  sessions,
		newClient: newClient,
		exportDir: exportDir,
		log:       log,
		ws:        make(map[int64]*Workspace),
	}
	h.auth = &auth.Flow{
		Bot:     bot,
		API:     newClient(nil),
		Log:     log,
		OnLogin: h.afterLogin,
	}
	return h
}

// telegram caps message text at 4096 characters
const maxText = 4000

func (h *Handler) send(chatID int64, text string, markup any) int {
	var last int
	parts := split(text, maxText)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		out, err := tg.Send(h.bot, msg)
		if err != nil {
			metrics.HandlerErrors.Inc()
			continue
		}
		last = out.MessageID
	}
	return last
}

func (h *Handler) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := tg.Request(h.bot, tgbotapi.NewCallback(cb.ID, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// split cuts text on line boundaries into parts of at most n runes.
func split(text string, n int) []string {
	if utf8.RuneCountInString(text) <= n {
		return []string{text}
	}
	var parts []string
	var b strings.Builder
	size := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		l := utf8.RuneCountInString(line)
		if size+l > n && size > 0 {
			parts = append(parts, b.String())
			b.Reset()
			size = 0
		}
		b.WriteString(line)
		size += l
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// fail reports err to the chat. System errors go to Sentry too; errors
// that are not screen errors get a generic text.
func (h *Handler) fail(ctx context.Context, chatID int64, op string, err error) {
	if err == nil {
		return
	}
	var serr *screen.Error
	if !errors.As(err, &serr) {
		logging.With(ctx, h.log).Error(op+" failed", zap.Error(err))
		observability.CaptureErrFor(chatID, op, err)
		h.send(chatID, "⚠️ Something went wrong. Please try again.", nil)
		return
	}
	if apiclient.IsSystem(err) {
		observability.CaptureErrFor(chatID, op, err)
	}
	h.send(chatID, "⚠️ "+screen.Message(err), nil)
}

// noticeText renders a notice line, "" for none.
func noticeText(n *screen.Notice) string {
	if n == nil {
		return ""
	}
	switch n.Level {
	case screen.Success:
		return "✅ " + n.Text
	case screen.Danger:
		return "⚠️ " + n.Text
	default:
		return "ℹ️ " + n.Text
	}
}

// sendNotice sends n if there is one and reports whether it did.
func (h *Handler) sendNotice(chatID int64, n *screen.Notice) bool {
	if n == nil {
		return false
	}
	h.send(chatID, noticeText(n), nil)
	return true
}

func (h *Handler) sendMenu(chatID int64, sess *session.Session, text string) {
	role, authed := sess.Role()
	h.send(chatID, text, menu.ForRole(role, authed))
}
