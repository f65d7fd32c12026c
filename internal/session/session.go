// Package session holds the credential and role of one chat.
// Login and Logout are the only writers; screens only read.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/ctxutil"
	"github.com/luct-reporting/luct-bot/internal/db"
	"github.com/luct-reporting/luct-bot/internal/forms"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

// CredentialKey is the fixed store key the token lives under.
const CredentialKey = "token"

// Authenticator exchanges credentials for a token. *apiclient.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, in models.Credentials) (string, error)
}

type Session struct {
	chatID int64
	store  db.CredentialStore
	log    *zap.Logger

	mu        sync.RWMutex
	token     string
	role      models.Role
	observers map[int]func(models.Role)
	nextObs   int
}

func New(chatID int64, store db.CredentialStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		chatID:    chatID,
		store:     store,
		log:       log,
		observers: make(map[int]func(models.Role)),
	}
}

func (s *Session) ChatID() int64 { return s.chatID }

// Token returns the credential to attach, "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns ok=false for an anonymous session.
func (s *Session) Role() (models.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role, s.role != ""
}

// OnRoleChange registers fn; it is called after every login, logout or restore
// that changes the role ("" means signed out). The returned func unsubscribes.
func (s *Session) OnRoleChange(fn func(models.Role)) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Restore loads the stored credential. An undecodable credential is logged
// and leaves the session anonymous; only store failures are returned.
func (s *Session) Restore(ctx context.Context) error {
	sctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	tok, ok, err := s.store.Get(sctx, s.chatID, CredentialKey)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return nil
	}
	role, err := DecodeRole(tok)
	if err != nil {
		logging.With(ctx, s.log).Warn("stored credential not decodable", zap.Error(err))
		return nil
	}
	s.set(tok, role)
	return nil
}

// Login authenticates, persists the token and sets the role.
func (s *Session) Login(ctx context.Context, auth Authenticator, creds models.Credentials) error {
	if err := forms.Validate(creds); err != nil {
		return err
	}
	tok, err := auth.Login(ctx, creds)
	if err != nil {
		if apiclient.IsTransport(err) || apiclient.IsSystem(err) {
			logging.With(ctx, s.log).Warn("login failed", zap.Error(err))
		}
		return apiclient.ScreenError(err, "Login failed. Check your username and password.")
	}
	role, err := DecodeRole(tok)
	if err != nil {
		logging.With(ctx, s.log).Warn("login token not decodable", zap.Error(err))
		return screen.Decode("Login failed. Please try again.", err)
	}

	sctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Put(sctx, s.chatID, CredentialKey, tok); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.set(tok, role)
	return nil
}

// Logout forgets the credential locally; the server is not told.
func (s *Session) Logout(ctx context.Context) error {
	sctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	if err := s.store.Delete(sctx, s.chatID, CredentialKey); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	s.set("", "")
	return nil
}

// set swaps the state and notifies observers outside the lock.
func (s *Session) set(tok string, role models.Role) {
	s.mu.Lock()
	changed := s.role != role
	s.token, s.role = tok, role
	var obs []func(models.Role)
	if changed {
		obs = make([]func(models.Role), 0, len(s.observers))
		for _, fn := range s.observers {
			obs = append(obs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range obs {
		fn(role)
	}
}

var errNoRole = errors.New("credential has no usable role claim")

// DecodeRole reads the role claim without verifying the signature;
// verification is the server's job.
func DecodeRole(token string) (models.Role, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	raw, _ := claims["role"].(string)
	role, ok := models.ParseRole(raw)
	if !ok {
		// some tokens nest the user object
		if user, isMap := claims["user"].(map[string]any); isMap {
			raw, _ = user["role"].(string)
			role, ok = models.ParseRole(raw)
		}
	}
	if !ok {
		return "", errNoRole
	}
	return role, nil
}
