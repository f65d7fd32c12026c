package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/db"
)

// Manager hands out one Session per chat, restoring it on first use.
type Manager struct {
	store db.CredentialStore
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(store db.CredentialStore, log *zap.Logger) *Manager {
	return &Manager{store: store, log: log, sessions: make(map[int64]*Session)}
}

// Get returns the chat's session. A failed restore is not cached,
// so the next update retries it.
func (m *Manager) Get(ctx context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s, nil
	}
	s := New(chatID, m.store, m.log)
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	m.sessions[chatID] = s
	return s, nil
}
