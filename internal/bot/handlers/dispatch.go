package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/bot/auth"
	"github.com/luct-reporting/luct-bot/internal/bot/menu"
	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/ctxutil"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

// commands maps slash commands that open a screen.
var commands = map[string]routing.Path{
	"/reports":    routing.Reports,
	"/courses":    routing.Courses,
	"/classes":    routing.Classes,
	"/monitoring": routing.Monitoring,
	"/lectures":   routing.Lectures,
	"/ratings":    routing.Rating,
	"/home":       routing.Home,
}

// command splits "/search@luct_bot net" into "/search" and "net".
func command(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	name, arg, _ := strings.Cut(text, " ")
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	ctx = ctxutil.WithChatID(ctx, chatID)
	ws, err := h.workspace(ctx, chatID)
	if err != nil {
		logging.With(ctx, h.log).Error("open workspace", zap.Error(err))
		observability.CaptureErrFor(chatID, "workspace", err)
		h.send(chatID, "⚠️ Something went wrong. Please try again.", nil)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if auth.Active(chatID) {
		// /start always wins over a half-typed login
		if name, _ := command(text); name != "/start" {
			h.auth.HandleText(ctx, ws.Session, msg)
			return
		}
		auth.Cancel(chatID)
	}
	if st, ok := getFlow(chatID); ok {
		h.flowText(ctx, ws, st, text)
		return
	}

	cmd, arg := command(text)
	ctx = ctxutil.WithOp(ctx, cmd)
	switch {
	case cmd == "/start":
		h.Start(ctx, ws)
	case cmd == "/login", text == "Login":
		h.login(ws)
	case cmd == "/register", text == "Register":
		h.register(ws)
	case cmd == "/logout", text == menu.BtnLogout:
		h.Logout(ctx, ws)
	case cmd == "/cancel":
		h.send(chatID, "Nothing to cancel.", nil)
	case cmd == "/search":
		h.Search(ctx, ws, arg)
	case cmd == "/newreport":
		h.startReport(ctx, ws)
	case cmd == "/export":
		h.exportReports(ctx, ws)
	case cmd == "/rate":
		role, _ := ws.Session.Role()
		h.Show(ctx, ws, ratePath(role))
	case cmd != "":
		path, ok := commands[cmd]
		if !ok {
			h.send(chatID, "⚠️ Unknown command. Use /start", nil)
			return
		}
		h.Show(ctx, ws, path)
	default:
		if path, ok := menu.PathFor(text); ok {
			h.Show(ctx, ws, path)
			return
		}
		h.send(chatID, "⚠️ Unknown command. Use /start", nil)
	}
}

func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	ctx = ctxutil.WithOp(ctxutil.WithChatID(ctx, chatID), "callback")
	ws, err := h.workspace(ctx, chatID)
	if err != nil {
		h.ack(cb, "")
		logging.With(ctx, h.log).Error("open workspace", zap.Error(err))
		observability.CaptureErrFor(chatID, "workspace", err)
		return
	}
	data := cb.Data
	logging.With(ctx, h.log).Debug("callback", zap.String("data", data), zap.Int("msg_id", cb.Message.MessageID))

	if auth.IsCallback(data) {
		h.auth.HandleCallback(ctx, ws.Session, cb)
		return
	}
	h.ack(cb, "")

	switch data {
	case cbConfirmYes, cbConfirmNo:
		h.handleConfirm(ctx, ws, data == cbConfirmYes)
		return
	case cbFlowCancel, cbFlowSkip:
		st, ok := getFlow(chatID)
		if !ok {
			fsmutil.DisableMarkup(h.bot, chatID, cb.Message.MessageID)
			return
		}
		if data == cbFlowCancel {
			h.cancelFlow(ws, st)
		} else {
			h.flowSkip(ctx, ws, st)
		}
		return
	}

	// picks made inside an open conversation
	if st, ok := getFlow(chatID); ok {
		if value, ok := pickValue(data); ok {
			h.flowText(ctx, ws, st, value)
			return
		}
	}

	prefix, id := splitCallback(data)
	switch prefix {
	case "nav_":
		h.Show(ctx, ws, routing.Path(strings.TrimPrefix(data, "nav_")))
	case cbReportNew:
		h.startReport(ctx, ws)
	case cbReportExport:
		h.exportReports(ctx, ws)
	case cbReportDetails:
		ws.Reports.Toggle(id)
		h.renderReports(ws)
	case cbReportEdit:
		h.startReportEdit(ctx, ws, id)
	case cbReportDelete:
		h.askConfirm(chatID, confirmReport, id)
	case cbReportFeedback:
		h.startFeedback(ws, id)
	case cbRateTarget:
		h.startRating(ws, id)
	case cbClassNew:
		h.startClassNew(ws)
	case cbClassEdit:
		h.startClassEdit(ws, id)
	case cbClassDelete:
		h.askConfirm(chatID, confirmClass, id)
	case cbCourseNew:
		h.startCourseNew(ctx, ws)
	case cbCourseDelete:
		h.askConfirm(chatID, confirmCourse, id)
	case cbLectureNew:
		h.startLecture(ctx, ws)
	case cbLectureDelete:
		h.askConfirm(chatID, confirmLecture, id)
	case cbLectureCandidates:
		h.showCandidates(ctx, ws)
	case cbLecturePromote:
		h.promote(ctx, ws, id)
	default:
		metrics.HandlerErrors.Inc()
		logging.With(ctx, h.log).Warn("unknown callback", zap.String("data", data))
	}
}

// splitCallback separates "rep_del_42" into "rep_del_" and 42. Data
// without a trailing id comes back whole with id 0.
func splitCallback(data string) (string, int64) {
	i := strings.LastIndexByte(data, '_')
	if i < 0 || i == len(data)-1 {
		if strings.HasPrefix(data, "nav_") {
			return "nav_", 0
		}
		return data, 0
	}
	id, err := strconv.ParseInt(data[i+1:], 10, 64)
	if err != nil {
		if strings.HasPrefix(data, "nav_") {
			return "nav_", 0
		}
		return data, 0
	}
	return data[:i+1], id
}

const cbPickPrefix = "pick_"

// pickValue extracts the answer carried by a flow button.
func pickValue(data string) (string, bool) {
	if !strings.HasPrefix(data, cbPickPrefix) {
		return "", false
	}
	return strings.TrimPrefix(data, cbPickPrefix), true
}

func pickButton(label, value string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, cbPickPrefix+value)
}
