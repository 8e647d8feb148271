package auth

import (
	"context"
	"errors"
	"fmt"

	"gatehouse.org/internal/obs"
)

// LoginCookie is the reserved cookie key holding the authenticated username.
const LoginCookie = "LOGIN"

// SetCookie writes a value under name for the session. An existing active
// entry is superseded, not overwritten: the old row is soft-deleted and a
// fresh one inserted, preserving the trail of prior values.
func (s *Service) SetCookie(ctx context.Context, sess *Session, name, value string) (*SessionCookie, error) {
	if err := s.touchSession(ctx, sess); err != nil {
		return nil, err
	}
	cookies := s.store.SessionCookies()
	if _, err := cookies.FindActive(ctx, sess.ID, name); err == nil {
		if _, err := cookies.Deactivate(ctx, sess.ID, name); err != nil {
			return nil, fmt.Errorf("supersede cookie %q: %w", name, err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("set cookie %q: %w", name, err)
	}
	cookie := &SessionCookie{
		SessionID: sess.ID,
		Name:      name,
		Value:     value,
		CreatedAt: s.now().UTC(),
	}
	if err := cookies.Insert(ctx, cookie); err != nil {
		return nil, fmt.Errorf("set cookie %q: %w", name, err)
	}
	obs.CookieWritten()
	return cookie, nil
}

// ReadCookie returns the unique active entry for (session, name), or
// ErrNotFound when nothing is set.
func (s *Service) ReadCookie(ctx context.Context, sess *Session, name string) (*SessionCookie, error) {
	if err := s.touchSession(ctx, sess); err != nil {
		return nil, err
	}
	cookie, err := s.store.SessionCookies().FindActive(ctx, sess.ID, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cookie %q: %w", name, err)
	}
	return cookie, nil
}

// DeleteCookie soft-deletes the active entry for (session, name) and
// reports whether a row was actually deactivated.
func (s *Service) DeleteCookie(ctx context.Context, sess *Session, name string) (bool, error) {
	if err := s.touchSession(ctx, sess); err != nil {
		return false, err
	}
	affected, err := s.store.SessionCookies().Deactivate(ctx, sess.ID, name)
	if err != nil {
		return false, fmt.Errorf("delete cookie %q: %w", name, err)
	}
	return affected > 0, nil
}

// Login verifies the credentials and binds the username to the session via
// the LOGIN cookie.
func (s *Service) Login(ctx context.Context, sess *Session, username, password string) (*User, error) {
	user, err := s.AuthenticateUser(ctx, username, password)
	if err != nil {
		obs.LoginAttempt(false)
		return nil, err
	}
	if _, err := s.SetCookie(ctx, sess, LoginCookie, user.Username); err != nil {
		return nil, err
	}
	obs.LoginAttempt(true)
	s.auditEvent(ctx, "auth.login", map[string]any{
		"session_id": sess.ID,
		"username":   user.Username,
	})
	return user, nil
}

// IsLoggedIn resolves the LOGIN cookie to its user. A session without one,
// or one naming a user that has since been deactivated, is not logged in.
func (s *Service) IsLoggedIn(ctx context.Context, sess *Session) (*User, error) {
	cookie, err := s.ReadCookie(ctx, sess, LoginCookie)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	user, err := s.store.Users().FindActiveByUsername(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("resolve login cookie: %w", err)
	}
	return user, nil
}

// Logout removes the LOGIN cookie. It reports false without touching
// anything when no one is logged in.
func (s *Service) Logout(ctx context.Context, sess *Session) (bool, error) {
	user, err := s.IsLoggedIn(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return false, nil
		}
		return false, err
	}
	ok, err := s.DeleteCookie(ctx, sess, LoginCookie)
	if err != nil {
		return false, err
	}
	if ok {
		s.auditEvent(ctx, "auth.logout", map[string]any{
			"session_id": sess.ID,
			"username":   user.Username,
		})
	}
	return ok, nil
}
