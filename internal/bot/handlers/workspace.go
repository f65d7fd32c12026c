package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/catalog"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/rating"
	"github.com/luct-reporting/luct-bot/internal/reports"
	"github.com/luct-reporting/luct-bot/internal/routing"
	"github.com/luct-reporting/luct-bot/internal/session"
)

// Workspace is one chat's "browser": its session, route and screens.
type Workspace struct {
	ChatID  int64
	Session *session.Session
	API     *apiclient.Client
	Shell   *routing.Shell

	Reports    *reports.Screen
	Rating     *rating.Screen
	Courses    *catalog.Courses
	Classes    *catalog.Classes
	Lectures   *catalog.Lectures
	Monitoring *catalog.Monitoring
	Dashboard  *catalog.Dashboard

	unsub func()
}

func (h *Handler) workspace(ctx context.Context, chatID int64) (*Workspace, error) {
	h.mu.Lock()
	ws, ok := h.ws[chatID]
	h.mu.Unlock()
	if ok {
		return ws, nil
	}

	sess, err := h.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("session for chat %d: %w", chatID, err)
	}
	client := h.newClient(sess)
	log := h.log.With(zap.Int64("chat_id", chatID))
	ws = &Workspace{
		ChatID:     chatID,
		Session:    sess,
		API:        client,
		Reports:    reports.New(client, sess, log, h.exportDir),
		Rating:     rating.New(client, sess, log),
		Courses:    catalog.NewCourses(client, sess, log),
		Classes:    catalog.NewClasses(client, sess, log),
		Lectures:   catalog.NewLectures(client, sess, log),
		Monitoring: catalog.NewMonitoring(client, log),
		Dashboard:  catalog.NewDashboard(client, log),
	}
	ws.Shell = routing.NewShell(sess, func(from, to routing.Path) {
		log.Debug("route redirected", zap.String("from", string(from)), zap.String("to", string(to)))
	})
	ws.unsub = sess.OnRoleChange(func(models.Role) { ws.reset() })

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.ws[chatID]; ok {
		ws.close()
		return existing, nil
	}
	h.ws[chatID] = ws
	return ws, nil
}

// reset drops every screen's state and any half-finished conversation.
func (ws *Workspace) reset() {
	ws.Reports.Reset()
	ws.Rating.Reset()
	ws.Courses.Reset()
	ws.Classes.Reset()
	ws.Lectures.Reset()
	ws.Monitoring.Reset()
	ws.Dashboard.Reset()
	clearFlow(ws.ChatID)
	clearConfirm(ws.ChatID)
}

func (ws *Workspace) close() {
	if ws.unsub != nil {
		ws.unsub()
	}
	ws.Shell.Close()
}

// Close releases every workspace; used on shutdown.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ws := range h.ws {
		ws.close()
		delete(h.ws, id)
	}
}
