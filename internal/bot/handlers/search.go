package handlers

import (
	"context"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

// Search filters the list on the chat's current screen. An empty query
// clears the filter.
func (h *Handler) Search(ctx context.Context, ws *Workspace, q string) {
	var (
		err    error
		render func(*Workspace)
	)
	switch ws.Shell.Current() {
	case routing.Reports:
		err, render = ws.Reports.Search(ctx, q), h.renderReports
	case routing.Courses:
		err, render = ws.Courses.Search(ctx, q), h.renderCourses
	case routing.Classes:
		err, render = ws.Classes.Search(ctx, q), h.renderClasses
	case routing.Monitoring:
		err, render = ws.Monitoring.Search(ctx, q), h.renderMonitoring
	default:
		h.send(ws.ChatID, "ℹ️ Search is available on Reports, Courses, Classes and Monitoring.", nil)
		return
	}
	if err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "search", err)
	}
	render(ws)
}
