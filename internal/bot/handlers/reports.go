package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/export"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/reports"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

const (
	cbReportNew      = "rep_new"
	cbReportExport   = "rep_export"
	cbReportDetails  = "rep_det_"
	cbReportEdit     = "rep_edit_"
	cbReportDelete   = "rep_del_"
	cbReportFeedback = "rep_fb_"

	// long lists are cut here; /search narrows them and export has everything
	maxListItems = 25
)

func (h *Handler) showReports(ctx context.Context, ws *Workspace) {
	if err := ws.Reports.Load(ctx); err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch reports", err)
	}
	h.renderReports(ws)
}

func viewNotice(v reports.View) string {
	switch v := v.(type) {
	case reports.LecturerView:
		return noticeText(v.Notice)
	case reports.PRLView:
		return noticeText(v.Notice)
	case reports.ReadOnlyView:
		return noticeText(v.Notice)
	default:
		return ""
	}
}

func (h *Handler) renderReports(ws *Workspace) {
	v := ws.Reports.View()
	items := reports.Items(v)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s\n", v.Title())
	if n := viewNotice(v); n != "" {
		b.WriteString(n + "\n")
	}
	if _, ok := v.(reports.LecturerView); ok {
		b.WriteString("Tap 📝 New report to submit a lecture report.\n")
	}
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("No reports found.\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d. Use /search to narrow the list.\n", maxListItems, len(items))
			break
		}
		b.WriteString(reportLine(it.Report))
		if it.Expanded {
			b.WriteString(reportDetails(it.Report))
		}
		rows = append(rows, reportButtons(v, it.Report.ID))
	}

	var tail []tgbotapi.InlineKeyboardButton
	if _, ok := v.(reports.LecturerView); ok {
		tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("📝 New report", cbReportNew))
	}
	tail = append(tail,
		tgbotapi.NewInlineKeyboardButtonData("📥 Export", cbReportExport),
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "nav_"+string(routing.Reports)),
	)
	rows = append(rows, tail)
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func reportLine(r models.Report) string {
	fb := ""
	if r.Feedback != nil && *r.Feedback != "" {
		fb = " 💬"
	}
	return fmt.Sprintf("#%d %s (%s) · %s · week %d · %s%s\n",
		r.ID, r.CourseName, r.CourseCode, r.ClassName, r.WeekOfReporting.Int(), r.DateOfLecture, fb)
}

// reportDetails lists every exported column of r.
func reportDetails(r models.Report) string {
	var b strings.Builder
	row := export.ReportRow(r)
	for i, col := range export.ReportColumns {
		fmt.Fprintf(&b, "   %s: %v\n", col, row[i])
	}
	return b.String()
}

func reportButtons(v reports.View, id int64) []tgbotapi.InlineKeyboardButton {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔎 #%d", id), fmt.Sprintf("%s%d", cbReportDetails, id)),
	}
	if reports.Allows(v, reports.ActionEdit) {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✏️", fmt.Sprintf("%s%d", cbReportEdit, id)))
	}
	if reports.Allows(v, reports.ActionDelete) {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbReportDelete, id)))
	}
	if reports.Allows(v, reports.ActionFeedback) {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("💬", fmt.Sprintf("%s%d", cbReportFeedback, id)))
	}
	return row
}
