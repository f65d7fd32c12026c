package handlers

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type flowKind string

const (
	flowReport     flowKind = "report"
	flowReportEdit flowKind = "report_edit"
	flowFeedback   flowKind = "feedback"
	flowRating     flowKind = "rating"
	flowClassNew   flowKind = "class_new"
	flowClassEdit  flowKind = "class_edit"
	flowCourseNew  flowKind = "course_new"
	flowLecture    flowKind = "lecture"
)

const (
	cbFlowCancel = "flow_cancel"
	cbFlowSkip   = "flow_skip"
)

// flowState is the one conversation a chat may have open.
type flowState struct {
	kind   flowKind
	step   int
	id     int64 // report, class or rating target
	values map[string]string
	msgID  int
}

var flows sync.Map // chatID(int64) -> *flowState

func getFlow(chatID int64) (*flowState, bool) {
	v, ok := flows.Load(chatID)
	if !ok {
		return nil, false
	}
	return v.(*flowState), true
}
func setFlow(chatID int64, st *flowState) { flows.Store(chatID, st) }
func clearFlow(chatID int64)              { flows.Delete(chatID) }

func newFlow(kind flowKind, id int64) *flowState {
	return &flowState{kind: kind, id: id, values: make(map[string]string)}
}

// prompt asks the next question, retiring the previous prompt's buttons.
func (h *Handler) prompt(chatID int64, st *flowState, text string, rows ...[]tgbotapi.InlineKeyboardButton) {
	if st.msgID != 0 {
		fsmutil.DisableMarkup(h.bot, chatID, st.msgID)
	}
	rows = append(rows, fsmutil.CancelRow(cbFlowCancel))
	st.msgID = h.send(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// promptOptional is prompt with a Skip button.
func (h *Handler) promptOptional(chatID int64, st *flowState, text string) {
	if st.msgID != 0 {
		fsmutil.DisableMarkup(h.bot, chatID, st.msgID)
	}
	st.msgID = h.send(chatID, text, tgbotapi.NewInlineKeyboardMarkup(fsmutil.SkipCancelRow(cbFlowSkip, cbFlowCancel)))
}

// endFlow closes the conversation and its last prompt.
func (h *Handler) endFlow(chatID int64, st *flowState) {
	if st.msgID != 0 {
		fsmutil.DisableMarkup(h.bot, chatID, st.msgID)
	}
	clearFlow(chatID)
}

func (h *Handler) cancelFlow(ws *Workspace, st *flowState) {
	switch st.kind {
	case flowReportEdit:
		ws.Reports.CancelEdit(st.id)
	case flowClassEdit:
		ws.Classes.CancelEdit()
	}
	h.endFlow(ws.ChatID, st)
	h.send(ws.ChatID, "🚫 Cancelled.", nil)
}

// flowText feeds a typed answer to the open conversation.
func (h *Handler) flowText(ctx context.Context, ws *Workspace, st *flowState, text string) {
	if fsmutil.IsCancelText(text) {
		h.cancelFlow(ws, st)
		return
	}
	switch st.kind {
	case flowReport, flowReportEdit:
		h.reportAnswer(ctx, ws, st, text)
	case flowFeedback:
		h.feedbackAnswer(ctx, ws, st, text)
	case flowRating:
		h.ratingAnswer(ctx, ws, st, text)
	case flowClassNew, flowClassEdit:
		h.classAnswer(ctx, ws, st, text)
	case flowCourseNew:
		h.courseAnswer(ctx, ws, st, text)
	case flowLecture:
		h.lectureAnswer(ctx, ws, st, text)
	}
}

// flowSkip answers an optional step with an empty value.
func (h *Handler) flowSkip(ctx context.Context, ws *Workspace, st *flowState) {
	switch st.kind {
	case flowReport, flowReportEdit:
		h.reportAnswer(ctx, ws, st, "-")
	case flowRating:
		h.ratingAnswer(ctx, ws, st, "-")
	}
}

// outcome reports the result of a screen operation. A pending notice
// wins over the bare error text so the same failure is not shown twice.
func (h *Handler) outcome(ws *Workspace, op string, err error, notice *screen.Notice) bool {
	if notice != nil && (err == nil || notice.Level == screen.Danger) {
		if err != nil && apiclient.IsSystem(err) {
			observability.CaptureErrFor(ws.ChatID, op, err)
		}
		h.sendNotice(ws.ChatID, notice)
		return err == nil
	}
	if err != nil {
		h.fail(context.Background(), ws.ChatID, op, err)
		return false
	}
	return true
}
