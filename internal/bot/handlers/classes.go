package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

const (
	cbClassNew    = "cls_new"
	cbClassEdit   = "cls_edit_"
	cbClassDelete = "cls_del_"
)

const (
	classStepName = iota
	classStepVenue
)

func (h *Handler) showClasses(ctx context.Context, ws *Workspace) {
	if err := ws.Classes.Load(ctx); err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch classes", err)
	}
	h.renderClasses(ws)
}

func (h *Handler) renderClasses(ws *Workspace) {
	var b strings.Builder
	b.WriteString("🏫 Classes\n")
	if n := noticeText(ws.Classes.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	items := ws.Classes.Items()
	if len(items) == 0 {
		b.WriteString("No classes found.\n")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range items {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d. Use /search to narrow the list.\n", maxListItems, len(items))
			break
		}
		fmt.Fprintf(&b, "#%d %s · %s\n", c.ClassID, c.ClassName, c.Venue)
		var row []tgbotapi.InlineKeyboardButton
		if ws.Classes.CanEdit() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✏️ %s", c.ClassName), fmt.Sprintf("%s%d", cbClassEdit, c.ClassID)))
		}
		if ws.Classes.CanDelete() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbClassDelete, c.ClassID)))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	var tail []tgbotapi.InlineKeyboardButton
	if ws.Classes.CanEdit() {
		tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("➕ New class", cbClassNew))
	}
	tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "nav_"+string(routing.Classes)))
	rows = append(rows, tail)
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) startClassNew(ws *Workspace) {
	if !ws.Classes.CanEdit() {
		h.send(ws.ChatID, "⚠️ Only lecturers can add classes.", nil)
		return
	}
	st := newFlow(flowClassNew, 0)
	setFlow(ws.ChatID, st)
	h.prompt(ws.ChatID, st, "➕ New class\nClass name:")
}

func (h *Handler) startClassEdit(ws *Workspace, id int64) {
	if err := ws.Classes.StartEdit(id); err != nil {
		h.fail(context.Background(), ws.ChatID, "edit class", err)
		return
	}
	st := newFlow(flowClassEdit, id)
	setFlow(ws.ChatID, st)
	_, cur := ws.Classes.Editing()
	h.prompt(ws.ChatID, st, fmt.Sprintf("✏️ Edit class #%d\nClass name:\nCurrent: %s (send . to keep)", id, cur.ClassName))
}

func (h *Handler) classAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	value := strings.TrimSpace(text)
	if st.kind == flowClassEdit {
		_, cur := ws.Classes.Editing()
		if fsmutil.IsKeepText(value) {
			if st.step == classStepName {
				value = cur.ClassName
			} else {
				value = cur.Venue
			}
		}
	}

	switch st.step {
	case classStepName:
		st.values["class_name"] = value
		st.step = classStepVenue
		prompt := "Venue:"
		if st.kind == flowClassEdit {
			_, cur := ws.Classes.Editing()
			prompt = fmt.Sprintf("Venue:\nCurrent: %s (send . to keep)", cur.Venue)
		}
		h.prompt(ws.ChatID, st, prompt)
		return
	case classStepVenue:
		st.values["venue"] = value
	}
	h.endFlow(ws.ChatID, st)

	var err error
	if st.kind == flowClassEdit {
		ws.Classes.SetEdit("class_name", st.values["class_name"])
		ws.Classes.SetEdit("venue", st.values["venue"])
		err = ws.Classes.SaveEdit(ctx)
		if err != nil {
			ws.Classes.CancelEdit()
		}
	} else {
		err = ws.Classes.Create(ctx, st.values["class_name"], st.values["venue"])
	}
	if h.outcome(ws, string(st.kind), err, ws.Classes.Notice()) {
		h.renderClasses(ws)
	}
}
