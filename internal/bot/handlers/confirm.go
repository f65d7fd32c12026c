package handlers

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/catalog"
	"github.com/luct-reporting/luct-bot/internal/reports"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type confirmKind string

const (
	confirmReport  confirmKind = "report"
	confirmClass   confirmKind = "class"
	confirmCourse  confirmKind = "course"
	confirmLecture confirmKind = "lecture"
)

const (
	cbConfirmYes = "cfm_yes"
	cbConfirmNo  = "cfm_no"
)

var prompts = map[confirmKind]string{
	confirmReport:  reports.DeletePrompt,
	confirmClass:   catalog.ClassDeletePrompt,
	confirmCourse:  catalog.CourseDeletePrompt,
	confirmLecture: catalog.LectureDeletePrompt,
}

type pendingConfirm struct {
	kind  confirmKind
	id    int64
	msgID int
}

var confirms sync.Map // chatID(int64) -> *pendingConfirm

func clearConfirm(chatID int64) { confirms.Delete(chatID) }

// askConfirm shows the Yes/No prompt. The delete itself runs when Yes arrives.
func (h *Handler) askConfirm(chatID int64, kind confirmKind, id int64) {
	if old, ok := confirms.Load(chatID); ok {
		fsmutil.DisableMarkup(h.bot, chatID, old.(*pendingConfirm).msgID)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(fsmutil.YesNoRow(cbConfirmYes, cbConfirmNo))
	msgID := h.send(chatID, "❓ "+prompts[kind], kb)
	confirms.Store(chatID, &pendingConfirm{kind: kind, id: id, msgID: msgID})
}

func (h *Handler) handleConfirm(ctx context.Context, ws *Workspace, yes bool) {
	v, ok := confirms.LoadAndDelete(ws.ChatID)
	if !ok {
		return
	}
	pc := v.(*pendingConfirm)
	fsmutil.DisableMarkup(h.bot, ws.ChatID, pc.msgID)
	if !yes {
		h.send(ws.ChatID, "Deletion cancelled.", nil)
		return
	}

	switch pc.kind {
	case confirmReport:
		err := ws.Reports.Delete(ctx, pc.id, screen.Confirmed)
		if h.outcome(ws, "delete report", err, ws.Reports.Notice()) {
			h.renderReports(ws)
		}
	case confirmClass:
		err := ws.Classes.Delete(ctx, pc.id, screen.Confirmed)
		if h.outcome(ws, "delete class", err, ws.Classes.Notice()) {
			h.renderClasses(ws)
		}
	case confirmCourse:
		err := ws.Courses.Delete(ctx, pc.id, screen.Confirmed)
		if h.outcome(ws, "delete course", err, ws.Courses.Notice()) {
			h.renderCourses(ws)
		}
	case confirmLecture:
		err := ws.Lectures.Delete(ctx, pc.id, screen.Confirmed)
		if h.outcome(ws, "delete lecture", err, ws.Lectures.Notice()) {
			h.renderLectures(ws)
		}
	}
}
