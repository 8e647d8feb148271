package auth

import (
	"context"
	"errors"
	"fmt"

	"gatehouse.org/internal/obs"
)

// CreateSession mints a token, wraps it in a session, and returns the
// session together with the bearer secret the caller must present on
// subsequent requests. The secret is not recoverable later.
func (s *Service) CreateSession(ctx context.Context) (*Session, string, error) {
	tok, secret, err := s.mintToken(ctx, s.sessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	sess := &Session{
		TokenID:   tok.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Sessions().Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	obs.SessionCreated()
	return sess, secret, nil
}

// ResolveSession resolves a bearer secret to its live session and extends
// the session's expiry by the sliding window. Activity keeps you logged in;
// an expired session is indistinguishable from one that never existed.
func (s *Service) ResolveSession(ctx context.Context, secret string) (*Session, error) {
	sess, err := s.store.Sessions().FindActiveBySecret(ctx, secret, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if err := s.touchSession(ctx, sess); err != nil {
		return nil, err
	}
	obs.SessionResolved()
	return sess, nil
}

// touchSession pushes the session token's expiry forward by the sliding
// window. Two touches racing is harmless; the loser only shortens the
// session slightly.
func (s *Service) touchSession(ctx context.Context, sess *Session) error {
	exp := s.now().UTC().Add(s.sessionTTL)
	if err := s.store.Tokens().Extend(ctx, sess.TokenID, exp); err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	return nil
}
