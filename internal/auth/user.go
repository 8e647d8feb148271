package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InviteConsumer is the capability invite tokens are scoped to.
const InviteConsumer = "create_user"

// CreateUser hashes the password and persists a new active identity under
// the named clearance. The username must not belong to another active user.
func (s *Service) CreateUser(ctx context.Context, username, password, clearanceName string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("create user: %w", ErrInvalidCredentials)
	}
	if _, err := s.store.Users().FindActiveByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("create user %q: %w", username, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	clearance, err := s.store.Clearances().FindByName(ctx, clearanceName)
	if err != nil {
		return nil, fmt.Errorf("clearance %q: %w", clearanceName, err)
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	user := &User{
		Username:     username,
		PasswordHash: hashed.Hash,
		Salt:         hashed.Salt,
		ClearanceID:  clearance.ID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	s.auditEvent(ctx, "auth.user_created", map[string]any{
		"username":  user.Username,
		"clearance": clearance.Name,
	})
	return user, nil
}

// AuthenticateUser verifies a username/password pair. Unknown usernames and
// wrong passwords return the same error so callers cannot enumerate
// accounts.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.Users().FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate %q: %w", username, err)
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListClearances returns the clearance ladder ordered most-privileged
// first (sequence ascending).
func (s *Service) ListClearances(ctx context.Context) ([]Clearance, error) {
	return s.store.Clearances().List(ctx)
}

// ClearanceByName looks up a single clearance.
func (s *Service) ClearanceByName(ctx context.Context, name string) (*Clearance, error) {
	return s.store.Clearances().FindByName(ctx, name)
}

// IssueInviteToken mints a single-use token authorizing the creation of
// exactly one new user account.
func (s *Service) IssueInviteToken(ctx context.Context, ttl time.Duration) (*ConsumableToken, string, error) {
	return s.IssueConsumableToken(ctx, InviteConsumer, ttl)
}

// RegisterInvitedUser redeems an invite token around CreateUser. The token
// is consumed only when the account was actually created; a failed creation
// leaves it valid for another attempt.
func (s *Service) RegisterInvitedUser(ctx context.Context, secret, username, password, clearanceName string) (*User, error) {
	var user *User
	consumed, err := s.RedeemConsumableToken(ctx, secret, InviteConsumer, func(ctx context.Context) error {
		created, err := s.CreateUser(ctx, username, password, clearanceName)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !consumed {
		// The account exists but another actor spent the token first.
		return nil, ErrTokenExpired
	}
	return user, nil
}
