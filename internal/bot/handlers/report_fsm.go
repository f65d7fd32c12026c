package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/reports"
)

// startReport walks the lecturer through the report form, one field per message.
func (h *Handler) startReport(ctx context.Context, ws *Workspace) {
	if role, _ := ws.Session.Role(); role != models.Lecturer {
		h.send(ws.ChatID, "⚠️ Only lecturers can submit reports.", nil)
		return
	}
	// classes must be loaded so the class name can be matched
	if len(ws.Reports.Classes()) == 0 {
		err := ws.Reports.Load(ctx)
		ws.Reports.Notice()
		// without the list every typed class name would create a new class
		if err != nil && len(ws.Reports.Classes()) == 0 {
			h.fail(ctx, ws.ChatID, "load classes", err)
			return
		}
	}
	st := newFlow(flowReport, 0)
	setFlow(ws.ChatID, st)
	h.askReportField(ws, st)
}

func (h *Handler) startReportEdit(ctx context.Context, ws *Workspace, id int64) {
	if err := ws.Reports.StartEdit(id); err != nil {
		h.fail(ctx, ws.ChatID, "edit report", err)
		return
	}
	st := newFlow(flowReportEdit, id)
	setFlow(ws.ChatID, st)
	h.askReportField(ws, st)
}

func (h *Handler) reportDraft(ws *Workspace, st *flowState) reports.Draft {
	if st.kind == flowReportEdit {
		d, _ := ws.Reports.Editing(st.id)
		return d
	}
	return ws.Reports.Form()
}

func (h *Handler) askReportField(ws *Workspace, st *flowState) {
	f := reports.Schema[st.step]
	cur := h.reportDraft(ws, st)[f.Key]

	var b strings.Builder
	if st.kind == flowReportEdit {
		fmt.Fprintf(&b, "✏️ Edit report #%d · %d/%d\n", st.id, st.step+1, len(reports.Schema))
	} else {
		fmt.Fprintf(&b, "📝 New report · %d/%d\n", st.step+1, len(reports.Schema))
	}
	b.WriteString(f.Label)
	if f.Kind == reports.KindDate {
		b.WriteString(" (YYYY-MM-DD)")
	}
	b.WriteString(":")
	if f.Key == reports.FieldClassName {
		if names := classNames(ws.Reports.Classes()); names != "" {
			b.WriteString("\nKnown classes: " + names + "\nA new name creates the class.")
		}
	}
	if cur != "" {
		fmt.Fprintf(&b, "\nCurrent: %s (send . to keep)", cur)
	}

	if !f.Required {
		b.WriteString("\nOptional.")
		h.promptOptional(ws.ChatID, st, b.String())
		return
	}
	h.prompt(ws.ChatID, st, b.String())
}

func classNames(classes []models.Class) string {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.ClassName)
	}
	return strings.Join(names, ", ")
}

func (h *Handler) reportAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	f := reports.Schema[st.step]
	cur := h.reportDraft(ws, st)[f.Key]

	value := strings.TrimSpace(text)
	switch {
	case fsmutil.IsKeepText(value) && cur != "":
		value = cur
	case fsmutil.IsSkipText(value) && !f.Required:
		value = ""
	case value == "" || fsmutil.IsKeepText(value) || fsmutil.IsSkipText(value):
		h.send(ws.ChatID, fmt.Sprintf("⚠️ %s is required.", f.Label), nil)
		h.askReportField(ws, st)
		return
	}
	if err := reports.CheckField(f.Key, value); err != nil {
		h.fail(ctx, ws.ChatID, "report field", err)
		h.askReportField(ws, st)
		return
	}

	var err error
	if st.kind == flowReportEdit {
		err = ws.Reports.SetEditField(st.id, f.Key, value)
	} else {
		err = ws.Reports.SetField(f.Key, value)
	}
	if err != nil {
		h.fail(ctx, ws.ChatID, "report field", err)
		return
	}

	st.step++
	if st.step < len(reports.Schema) {
		h.askReportField(ws, st)
		return
	}
	h.endFlow(ws.ChatID, st)

	if st.kind == flowReportEdit {
		err = ws.Reports.SaveEdit(ctx, st.id)
		if !h.outcome(ws, "update report", err, ws.Reports.Notice()) {
			ws.Reports.CancelEdit(st.id)
			return
		}
	} else {
		err = ws.Reports.Submit(ctx)
		if !h.outcome(ws, "submit report", err, ws.Reports.Notice()) {
			h.send(ws.ChatID, "Your answers are kept. Send /newreport to try again.", nil)
			return
		}
	}
	h.renderReports(ws)
}
