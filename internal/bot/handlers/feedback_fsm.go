package handlers

import (
	"context"
	"fmt"
)

func (h *Handler) startFeedback(ws *Workspace, id int64) {
	r, ok := ws.Reports.Report(id)
	if !ok {
		h.send(ws.ChatID, "⚠️ Report not found. Refresh and try again.", nil)
		return
	}
	st := newFlow(flowFeedback, id)
	setFlow(ws.ChatID, st)
	text := fmt.Sprintf("💬 Feedback for report #%d (%s, %s):", id, r.CourseName, r.DateOfLecture)
	if cur := ws.Reports.FeedbackDraft(id); cur != "" {
		text += "\nDraft: " + cur
	}
	h.prompt(ws.ChatID, st, text)
}

func (h *Handler) feedbackAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	h.endFlow(ws.ChatID, st)
	ws.Reports.SetFeedback(st.id, text)
	err := ws.Reports.SubmitFeedback(ctx, st.id)
	if h.outcome(ws, "submit feedback", err, ws.Reports.Notice()) {
		h.renderReports(ws)
	}
}
