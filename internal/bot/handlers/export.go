package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/metrics"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/tg"
)

const pendingExport = "export:reports"

// exportReports sends every loaded report as a spreadsheet.
func (h *Handler) exportReports(ctx context.Context, ws *Workspace) {
	if _, ok := ws.Session.Role(); !ok {
		h.send(ws.ChatID, "⚠️ Please log in first.", nil)
		return
	}
	if !fsmutil.SetPending(ws.ChatID, pendingExport) {
		h.send(ws.ChatID, "⏳ An export is already running.", nil)
		return
	}
	defer fsmutil.ClearPending(ws.ChatID, pendingExport)

	path, err := ws.Reports.Export(ctx)
	if err != nil {
		logging.With(ctx, h.log).Error("export reports", zap.Error(err))
		observability.CaptureErrFor(ws.ChatID, "export", err)
		h.send(ws.ChatID, "⚠️ Export failed. Please try again.", nil)
		return
	}
	doc := tgbotapi.NewDocument(ws.ChatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("Lecture Reports (%d)", len(ws.Reports.Reports()))
	if _, err := tg.Send(h.bot, doc); err != nil {
		metrics.HandlerErrors.Inc()
		logging.With(ctx, h.log).Warn("send export", zap.Error(err))
	}
}
