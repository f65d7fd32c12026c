package routing

import (
	"sync"

	"github.com/luct-reporting/luct-bot/internal/models"
)

// RoleNotifier is the part of a session the shell watches.
type RoleNotifier interface {
	Role() (models.Role, bool)
	OnRoleChange(fn func(models.Role)) func()
}

// Shell tracks the current route of one chat and moves it off routes
// that a role change made unreachable.
type Shell struct {
	sess       RoleNotifier
	onRedirect func(from, to Path)
	unsub      func()

	mu   sync.Mutex
	path Path
}

// NewShell starts at Home. onRedirect, if set, runs after every
// role-driven redirect, outside the shell lock.
func NewShell(sess RoleNotifier, onRedirect func(from, to Path)) *Shell {
	s := &Shell{sess: sess, onRedirect: onRedirect, path: Home}
	s.unsub = sess.OnRoleChange(s.roleChanged)
	return s
}

// Navigate moves to p, or wherever the guard sends it, and returns the result.
func (s *Shell) Navigate(p Path) Path {
	role, authed := s.sess.Role()
	to, _ := Guard(role, authed, p)
	s.mu.Lock()
	s.path = to
	s.mu.Unlock()
	return to
}

func (s *Shell) Current() Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Shell) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Shell) roleChanged(role models.Role) {
	authed := role != ""
	s.mu.Lock()
	from := s.path
	to, ok := Guard(role, authed, from)
	if ok {
		s.mu.Unlock()
		return
	}
	s.path = to
	s.mu.Unlock()
	if s.onRedirect != nil {
		s.onRedirect(from, to)
	}
}
