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
	"github.com/luct-reporting/luct-bot/internal/reports"
	"github.com/luct-reporting/luct-bot/internal/routing"
)

const (
	cbLectureNew        = "lec_new"
	cbLectureDelete     = "lec_del_"
	cbLectureCandidates = "lec_cands"
	cbLecturePromote    = "lec_prom_"
)

const (
	lectureStepCourse = iota
	lectureStepLecturer
	lectureStepDate
)

func (h *Handler) showLectures(ctx context.Context, ws *Workspace) {
	if err := ws.Lectures.Load(ctx); err != nil && apiclient.IsSystem(err) {
		observability.CaptureErrFor(ws.ChatID, "fetch lectures", err)
	}
	h.renderLectures(ws)
}

func (h *Handler) renderLectures(ws *Workspace) {
	var b strings.Builder
	b.WriteString("🗓 Lectures\n")
	if n := noticeText(ws.Lectures.Notice()); n != "" {
		b.WriteString(n + "\n")
	}
	b.WriteString("\n")
	items := ws.Lectures.Items()
	if len(items) == 0 {
		b.WriteString("No lectures scheduled.\n")
	}
	manage := ws.Lectures.CanManage()
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, l := range items {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d.\n", maxListItems, len(items))
			break
		}
		fmt.Fprintf(&b, "#%d %s · %s · %s", l.ID, l.CourseName, l.LecturerName, l.DateOfLecture)
		if l.ReportID != nil {
			fmt.Fprintf(&b, " · report #%d", l.ReportID.Int64())
		}
		b.WriteString("\n")
		if manage {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d", l.ID), fmt.Sprintf("%s%d", cbLectureDelete, l.ID)),
			))
		}
	}
	var tail []tgbotapi.InlineKeyboardButton
	if manage {
		tail = append(tail,
			tgbotapi.NewInlineKeyboardButtonData("➕ Assign", cbLectureNew),
			tgbotapi.NewInlineKeyboardButtonData("📄 From reports", cbLectureCandidates),
		)
	}
	tail = append(tail, tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "nav_"+string(routing.Lectures)))
	rows = append(rows, tail)
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) startLecture(ctx context.Context, ws *Workspace) {
	if !ws.Lectures.CanManage() {
		h.send(ws.ChatID, "⚠️ Only program leaders can assign lectures.", nil)
		return
	}
	if err := ws.Lectures.LoadCourses(ctx); err != nil {
		h.outcome(ws, "fetch courses", err, ws.Lectures.Notice())
		return
	}
	courses := ws.Lectures.Courses()
	if len(courses) == 0 {
		h.send(ws.ChatID, "ℹ️ Add a course before assigning lectures.", nil)
		return
	}
	st := newFlow(flowLecture, 0)
	setFlow(ws.ChatID, st)
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range courses {
		if i == maxListItems {
			break
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			pickButton(fmt.Sprintf("%s (%s)", c.DisplayName(), c.DisplayCode()), strconv.FormatInt(c.ID, 10)),
		})
	}
	h.prompt(ws.ChatID, st, "➕ Assign lecture\nPick a course or send its id:", rows...)
}

func (h *Handler) lectureAnswer(ctx context.Context, ws *Workspace, st *flowState, text string) {
	value := strings.TrimSpace(text)
	switch st.step {
	case lectureStepCourse:
		id, err := catalog.ParseID(value)
		if err != nil {
			h.fail(ctx, ws.ChatID, "lecture course", err)
			return
		}
		st.values["course_id"] = strconv.FormatInt(id, 10)
		st.step = lectureStepLecturer
		h.prompt(ws.ChatID, st, "Lecturer: pick one or send a lecturer id.", lecturerRows(ws.Lectures.Lecturers())...)
	case lectureStepLecturer:
		id, err := catalog.ParseID(value)
		if err != nil {
			h.fail(ctx, ws.ChatID, "lecture lecturer", err)
			return
		}
		st.values["lecturer_id"] = strconv.FormatInt(id, 10)
		st.step = lectureStepDate
		h.prompt(ws.ChatID, st, "Date of lecture (YYYY-MM-DD):")
	case lectureStepDate:
		date, err := reports.NormalizeDate(value)
		if err != nil {
			h.fail(ctx, ws.ChatID, "lecture date", err)
			return
		}
		h.endFlow(ws.ChatID, st)
		course, _ := strconv.ParseInt(st.values["course_id"], 10, 64)
		lecturer, _ := strconv.ParseInt(st.values["lecturer_id"], 10, 64)
		err = ws.Lectures.Assign(ctx, models.LectureInput{
			CourseID:      course,
			LecturerID:    lecturer,
			DateOfLecture: date,
		})
		if h.outcome(ws, "assign lecture", err, ws.Lectures.Notice()) {
			h.renderLectures(ws)
		}
	}
}

// showCandidates lists submitted reports that have no lecture yet.
func (h *Handler) showCandidates(ctx context.Context, ws *Workspace) {
	if !ws.Lectures.CanManage() {
		h.send(ws.ChatID, "⚠️ Only program leaders can assign lectures.", nil)
		return
	}
	for _, load := range []func(context.Context) error{ws.Lectures.Load, ws.Lectures.LoadCourses, ws.Lectures.LoadAvailable} {
		if err := load(ctx); err != nil {
			h.outcome(ws, "fetch candidates", err, ws.Lectures.Notice())
			return
		}
	}
	cands := ws.Lectures.Candidates()
	if len(cands) == 0 {
		h.send(ws.ChatID, "ℹ️ Every submitted report already has a lecture.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("📄 Reports without a lecture\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range cands {
		if i == maxListItems {
			fmt.Fprintf(&b, "\nShowing %d of %d.\n", maxListItems, len(cands))
			break
		}
		fmt.Fprintf(&b, "#%d %s (%s) · %s · %s\n", r.ID, r.CourseName, r.CourseCode, r.LecturerName, r.DateOfLecture)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("➕ Lecture from #%d", r.ID), fmt.Sprintf("%s%d", cbLecturePromote, r.ID)),
		))
	}
	h.send(ws.ChatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) promote(ctx context.Context, ws *Workspace, reportID int64) {
	err := ws.Lectures.Promote(ctx, reportID)
	if h.outcome(ws, "promote report", err, ws.Lectures.Notice()) {
		h.renderLectures(ws)
	}
}
