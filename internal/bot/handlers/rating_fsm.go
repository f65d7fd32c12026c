package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/bot/shared/fsmutil"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/rating"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

const cbRateTarget = "rate_"

const (
	rateStepValue = iota
	rateStepComment
)

func (h *Handler) showRating(ctx context.Context, ws *Workspace) {
	err := ws.Rating.Load(ctx)
	if screen.KindOf(err) == screen.KindDenied {
		h.sendNotice(ws.ChatID, ws.Rating.Notice())
		return
	}
	if err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch rating targets", err)
	}
	h.renderRating(ws)
}

func (h *Handler) renderRating(ws *Workspace) {
	var b strings.Builder
	fmt.Fprintf(&b, "⭐ %s\n", ws.Rating.Title())
	if n := noticeText(ws.Rating.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	targets := ws.Rating.Targets()
	if len(targets) == 0 {
		b.WriteString("Nothing to rate right now.\n")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range targets {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d.\n", maxListItems, len(targets))
			break
		}
		fmt.Fprintf(&b, "• %s\n", t.Label())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Rate "+t.Label(), fmt.Sprintf("%s%d", cbRateTarget, t.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📊 My ratings", "nav_/rating"),
	))
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) showRatings(ctx context.Context, ws *Workspace) {
	err := ws.Rating.LoadRatings(ctx)
	if screen.KindOf(err) == screen.KindDenied {
		h.send(ws.ChatID, "ℹ️ "+rating.MsgNoAccess, nil)
		return
	}
	if err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch ratings", err)
	}
	var b strings.Builder
	b.WriteString("📊 Ratings\n")
	if n := noticeText(ws.Rating.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	list := ws.Rating.Ratings()
	if len(list) == 0 {
		b.WriteString("No ratings yet.\n")
	}
	for i, r := range list {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d.\n", maxListItems, len(list))
			break
		}
		who := r.StudentName
		if who == "" {
			who = r.CourseName
		}
		if r.LecturerName != "" {
			who += " · " + r.LecturerName
		}
		fmt.Fprintf(&b, "%s %s", stars(r.Rating.Int()), who)
		if r.Comment != nil && *r.Comment != "" {
			fmt.Fprintf(&b, ": %s", *r.Comment)
		}
		b.WriteString("\n")
	}
	h.send(ws.ChatID, b.String(), nil)
}

func stars(n int) string {
	if n < 0 || n > 5 {
		return fmt.Sprintf("(%d)", n)
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func (h *Handler) startRating(ws *Workspace, id int64) {
	label := fmt.Sprintf("#%d", id)
	for _, t := range ws.Rating.Targets() {
		if t.ID == id {
			label = t.Label()
		}
	}
	st := newFlow(flowRating, id)
	setFlow(ws.ChatID, st)
	var row []tgbotapi.InlineKeyboardButton
	for n := 1; n <= 5; n++ {
		row = append(row, pickButton(strconv.Itoa(n), strconv.Itoa(n)))
	}
	h.prompt(ws.ChatID, st, fmt.Sprintf("⭐ Rate %s from 1 to 5:", label), row)
}

func (h *Handler) ratingAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	switch st.step {
	case rateStepValue:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || n < 1 || n > 5 {
			h.send(ws.ChatID, "⚠️ Rating must be a whole number from 1 to 5.", nil)
			return
		}
		ws.Rating.SetRating(st.id, strconv.Itoa(n))
		st.step = rateStepComment
		h.promptOptional(ws.ChatID, st, "Add a comment, or tap Skip:")
	case rateStepComment:
		comment := text
		if fsmutil.IsSkipText(text) {
			comment = ""
		}
		ws.Rating.SetComment(st.id, comment)
		h.endFlow(ws.ChatID, st)
		err := ws.Rating.Submit(ctx, st.id)
		if h.outcome(ws, "submit rating", err, ws.Rating.Notice()) {
			h.renderRating(ws)
		}
	}
}
