package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

func (h *Handler) showMonitoring(ctx context.Context, ws *Workspace) {
	if err := ws.Monitoring.Load(ctx); err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch monitoring", err)
	}
	h.renderMonitoring(ws)
}

func (h *Handler) renderMonitoring(ws *Workspace) {
	var b strings.Builder
	b.WriteString("📈 Monitoring\n")
	if n := noticeText(ws.Monitoring.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	items := ws.Monitoring.Items()
	if len(items) == 0 {
		b.WriteString("No entries.\n")
	}
	for i, m := range items {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d. Use /search to narrow the list.\n", maxListItems, len(items))
			break
		}
		fmt.Fprintf(&b, "• %s · week %d\n", m.CourseName, m.WeekOfReporting.Int())
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "nav_"+string(routing.Monitoring)),
	))
	h.send(ws.ChatID, b.String(), kb)
}
