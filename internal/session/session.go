package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"meal-shell/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// RejectedError is returned by Login when the guard refuses a credential.
type RejectedError struct {
	Reason Reason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("credential rejected: %s", e.Reason)
}

// Session holds the active bearer credential. It satisfies api.TokenSource.
type Session struct {
	mu     sync.RWMutex
	guard  *Guard
	store  TokenStore
	token  string
	claims jwt.MapClaims
	log    *zap.Logger
}

// New creates a Session backed by store.
func New(guard *Guard, store TokenStore, log *zap.Logger) *Session {
	return &Session{
		guard: guard,
		store: store,
		log:   logger.OrNop(log),
	}
}

// Restore loads the persisted credential and screens it again. A credential
// that no longer passes is discarded from the store. Reports whether a
// session is active afterwards.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(stored) == "" {
		return false, nil
	}

	res := s.guard.Validate(stored)
	if !res.Valid {
		s.log.Warn("discarding stored credential", zap.String("reason", string(res.Reason)))
		if err := s.clear(ctx); err != nil {
			return false, err
		}
		return false, nil
	}

	s.mu.Lock()
	s.token, s.claims = res.Token, res.Claims
	s.mu.Unlock()
	return true, nil
}

// Login screens raw and, when it passes, makes it the active credential.
func (s *Session) Login(ctx context.Context, raw string) (Result, error) {
	res := s.guard.Validate(raw)
	if !res.Valid {
		s.log.Warn("sign-in credential rejected", zap.String("reason", string(res.Reason)))
		return res, &RejectedError{Reason: res.Reason}
	}
	if err := s.store.Save(ctx, res.Token); err != nil {
		return res, err
	}

	s.mu.Lock()
	s.token, s.claims = res.Token, res.Claims
	s.mu.Unlock()

	s.log.Info("signed in", zap.String("subject", subject(res.Claims)))
	return res, nil
}

// SetAuthToken stores token verbatim after trimming, without screening.
// An empty token clears the session entirely.
func (s *Session) SetAuthToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.clear(ctx)
	}
	if err := s.store.Save(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.claims = token, nil
	s.mu.Unlock()
	return nil
}

// AuthToken returns the active credential, or "".
func (s *Session) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	return s.AuthToken()
}

// Authenticated reports whether a credential is active.
func (s *Session) Authenticated() bool {
	return s.AuthToken() != ""
}

// Claims returns the claims of the active credential when it came through Login or Restore.
func (s *Session) Claims() jwt.MapClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Logout clears the session.
func (s *Session) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.claims = "", nil
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

func subject(claims jwt.MapClaims) string {
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	sub, _ := claims.GetSubject()
	return sub
}
