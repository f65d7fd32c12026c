// Package catalog holds the simpler entity screens: courses, classes,
// lectures, monitoring and the dashboard stats. Each one lists with an
// optional server-side query and re-fetches after every mutation.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/fetchgen"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

type RoleSource interface {
	Role() (models.Role, bool)
}

func roleOf(r RoleSource) models.Role {
	role, _ := r.Role()
	return role
}

// require refuses the operation locally unless the role is one of allowed.
func require(r RoleSource, msg string, allowed ...models.Role) error {
	if roleOf(r).In(allowed...) {
		return nil
	}
	return screen.Denied(msg)
}

// listState is a generation-guarded list plus the pending notice.
type listState[T any] struct {
	mu     sync.Mutex
	items  []T
	query  string
	notice *screen.Notice
	gen    fetchgen.Tracker
}

// load runs fetch and stores the result unless a newer load started meanwhile.
func (l *listState[T]) load(ctx context.Context, log *zap.Logger, what, fallback string, fetch func(context.Context, string) ([]T, error)) error {
	l.mu.Lock()
	q := l.query
	l.mu.Unlock()

	ticket := l.gen.Begin()
	items, err := fetch(ctx, q)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !ticket.Current() {
		logging.With(ctx, log).Debug("stale "+what+" response dropped", zap.Uint64("gen", ticket.Gen()))
		return nil
	}
	if err != nil {
		if apiclient.IsSystem(err) {
			logging.With(ctx, log).Warn("fetch "+what+" failed", zap.Error(err))
		}
		serr := apiclient.ScreenError(err, fallback)
		l.notice = screen.Alert(screen.Message(serr))
		return serr
	}
	if items == nil {
		items = []T{}
	}
	l.items = items
	return nil
}

func (l *listState[T]) setQuery(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = q
}

func (l *listState[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

func (l *listState[T]) setNotice(n *screen.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notice = n
}

// takeNotice returns and clears the pending notice.
func (l *listState[T]) takeNotice() *screen.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.notice
	l.notice = nil
	return n
}

func (l *listState[T]) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items, l.query, l.notice = nil, "", nil
	l.gen.Begin()
}

// mutationError logs system failures and converts err for display.
func mutationError(ctx context.Context, log *zap.Logger, what string, err error, fallback string) error {
	if apiclient.IsSystem(err) {
		logging.With(ctx, log).Warn(what+" failed", zap.Error(err))
	}
	return apiclient.ScreenError(err, fallback)
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
