package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/routing"
	"github.com/luct-reporting/luct-bot/internal/session"
)

// Start greets the chat and opens its home screen.
func (h *Handler) Start(ctx context.Context, ws *Workspace) {
	clearFlow(ws.ChatID)
	clearConfirm(ws.ChatID)
	role, authed := ws.Session.Role()
	if !authed {
		h.sendMenu(ws.ChatID, ws.Session, "👋 Welcome to the LUCT Reporting System.\nLog in or register to continue.")
		return
	}
	h.sendMenu(ws.ChatID, ws.Session, fmt.Sprintf("👋 Welcome back! You are signed in as %s.", role.Title()))
	h.Show(ctx, ws, routing.HomeFor(role, true))
}

func (h *Handler) login(ws *Workspace) {
	if role, ok := ws.Session.Role(); ok {
		h.send(ws.ChatID, fmt.Sprintf("You are already signed in as %s. Use Logout first.", role.Title()), nil)
		return
	}
	clearFlow(ws.ChatID)
	h.auth.StartLogin(ws.ChatID)
}

func (h *Handler) register(ws *Workspace) {
	if role, ok := ws.Session.Role(); ok {
		h.send(ws.ChatID, fmt.Sprintf("You are already signed in as %s. Use Logout first.", role.Title()), nil)
		return
	}
	clearFlow(ws.ChatID)
	h.auth.StartRegister(ws.ChatID)
}

// afterLogin shows the menu and home screen of the new role.
func (h *Handler) afterLogin(ctx context.Context, chatID int64, sess *session.Session) {
	ws, err := h.workspace(ctx, chatID)
	if err != nil {
		logging.With(ctx, h.log).Error("open workspace", zap.Error(err))
		return
	}
	role, _ := sess.Role()
	h.sendMenu(chatID, sess, "Choose a section:")
	h.Show(ctx, ws, routing.HomeFor(role, true))
}

func (h *Handler) Logout(ctx context.Context, ws *Workspace) {
	if _, ok := ws.Session.Role(); !ok {
		h.sendMenu(ws.ChatID, ws.Session, "You are not signed in.")
		return
	}
	if err := ws.Session.Logout(ctx); err != nil {
		logging.With(ctx, h.log).Error("logout", zap.Error(err))
		observability.CaptureErrFor(ws.ChatID, "logout", err)
		h.send(ws.ChatID, "⚠️ Could not sign out. Please try again.", nil)
		return
	}
	ws.Shell.Navigate(routing.Login)
	h.sendMenu(ws.ChatID, ws.Session, "👋 You have been signed out.")
}

func ratePath(role models.Role) routing.Path {
	if role == models.Lecturer {
		return routing.RateStudents
	}
	return routing.RateLectures
}

// Show navigates to path through the guard and renders whatever screen
// the chat ends up on.
func (h *Handler) Show(ctx context.Context, ws *Workspace, path routing.Path) {
	to := ws.Shell.Navigate(path)
	switch to {
	case routing.Home:
		h.showHome(ctx, ws)
	case routing.Login:
		h.login(ws)
	case routing.Register:
		h.register(ws)
	case routing.Reports:
		h.showReports(ctx, ws)
	case routing.Courses:
		h.showCourses(ctx, ws)
	case routing.Classes:
		h.showClasses(ctx, ws)
	case routing.Monitoring:
		h.showMonitoring(ctx, ws)
	case routing.Lectures:
		h.showLectures(ctx, ws)
	case routing.RateStudents, routing.RateLectures:
		h.showRating(ctx, ws)
	case routing.Rating:
		h.showRatings(ctx, ws)
	}
}

// showHome is the signed-in landing text; program-level roles also get
// the dashboard counts.
func (h *Handler) showHome(ctx context.Context, ws *Workspace) {
	role, authed := ws.Session.Role()
	if !authed {
		h.sendMenu(ws.ChatID, ws.Session, "Log in or register to continue.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 %s home\n", role.Title())
	if role.In(models.PRL, models.PL) {
		err := ws.Dashboard.Load(ctx)
		if err != nil {
			if apiclient.IsSystem(err) {
				observability.CaptureErrFor(ws.ChatID, "dashboard", err)
			}
			b.WriteString("⚠️ Failed to fetch dashboard data\n")
		} else {
			st := ws.Dashboard.Stats()
			fmt.Fprintf(&b, "\nCourses: %d\nLecturers: %d\nLectures: %d\nReports: %d\n",
				st.Courses, st.Lecturers, st.Lectures, st.Reports)
		}
	}
	b.WriteString("\nUse the menu below to open a section.")
	h.sendMenu(ws.ChatID, ws.Session, b.String())
}
