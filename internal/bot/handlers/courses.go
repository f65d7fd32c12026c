package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/catalog"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

const (
	cbCourseNew    = "crs_new"
	cbCourseDelete = "crs_del_"
)

const (
	courseStepName = iota
	courseStepCode
	courseStepLecturer
)

func (h *Handler) showCourses(ctx context.Context, ws *Workspace) {
	if err := ws.Courses.Load(ctx); err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch courses", err)
	}
	h.renderCourses(ws)
}

func (h *Handler) renderCourses(ws *Workspace) {
	var b strings.Builder
	b.WriteString("📚 Courses\n")
	if n := noticeText(ws.Courses.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	items := ws.Courses.Items()
	if len(items) == 0 {
		b.WriteString("No courses found.\n")
	}
	manage := ws.Courses.CanManage()
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range items {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d. Use /search to narrow the list.\n", maxListItems, len(items))
			break
		}
		fmt.Fprintf(&b, "• %s (%s)", c.DisplayName(), c.DisplayCode())
		if c.LecturerName != "" {
			fmt.Fprintf(&b, " · %s", c.LecturerName)
		}
		b.WriteString("\n")
		if manage {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 "+c.DisplayCode(), fmt.Sprintf("%s%d", cbCourseDelete, c.ID)),
			))
		}
	}
	var tail []tgbotapi.InlineKeyboardButton
	if manage {
		tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("➕ New course", cbCourseNew))
	}
	tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "nav_"+string(routing.Courses)))
	rows = append(rows, tail)
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) startCourseNew(ctx context.Context, ws *Workspace) {
	if !ws.Courses.CanManage() {
		h.send(ws.ChatID, "⚠️ Only program leaders can add courses.", nil)
		return
	}
	if len(ws.Courses.Items()) == 0 {
		_ = ws.Courses.Load(ctx)
		ws.Courses.Notice()
	}
	st := newFlow(flowCourseNew, 0)
	setFlow(ws.ChatID, st)
	h.prompt(ws.ChatID, st, "➕ New course\nCourse name:")
}

func (h *Handler) courseAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	value := strings.TrimSpace(text)
	switch st.step {
	case courseStepName:
		if value == "" {
			h.send(ws.ChatID, "⚠️ Course name is required.", nil)
			return
		}
		st.values["name"] = value
		st.step = courseStepCode
		h.prompt(ws.ChatID, st, "Course code:")
		return
	case courseStepCode:
		if value == "" {
			h.send(ws.ChatID, "⚠️ Course code is required.", nil)
			return
		}
		st.values["code"] = value
		st.step = courseStepLecturer
		h.prompt(ws.ChatID, st, "Lecturer: pick one or send a lecturer id.", lecturerRows(ws.Courses.Lecturers())...)
		return
	}

	id, err := catalog.ParseID(value)
	if err != nil {
		h.fail(ctx, ws.ChatID, "course lecturer", err)
		return
	}
	h.endFlow(ws.ChatID, st)
	err = ws.Courses.Create(ctx, models.CourseInput{
		Name:       st.values["name"],
		Code:       st.values["code"],
		LecturerID: id,
	})
	if h.outcome(ws, "create course", err, ws.Courses.Notice()) {
		h.renderCourses(ws)
	}
}

// lecturerRows lays lecturer picks out two per row.
func lecturerRows(opts []catalog.LecturerOption) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, o := range opts {
		if i == maxListItems {
			break
		}
		label := o.Name
		if label == "" {
			label = "#" + strconv.FormatInt(o.ID, 10)
		}
		row = append(row, pickButton(label, strconv.FormatInt(o.ID, 10)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}
