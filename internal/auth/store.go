package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations the auth core requires. All
// time-sensitive queries take an explicit "now" so validity is decided at
// query time; nothing sweeps expired rows in the background.
type Store interface {
	Tokens() TokenStore
	Sessions() SessionStore
	SessionCookies() SessionCookieStore
	Users() UserStore
	Clearances() ClearanceStore
	Consumers() ConsumerStore
	ConsumableTokens() ConsumableTokenStore
}

// TokenStore manages bearer token rows. Rows are never deleted; expiry is
// mutated instead.
type TokenStore interface {
	Create(ctx context.Context, tok *Token) error
	// FindActiveBySecret returns the token for secret iff expired_at > now.
	FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*Token, error)
	// Extend pushes the token's expiry to expiredAt.
	Extend(ctx context.Context, tokenID string, expiredAt time.Time) error
	// ForceExpire sets expired_at to cutoff in a single conditional update
	// guarded by expired_at > now, and reports the number of rows affected.
	// Zero means a concurrent actor already expired or consumed the token.
	ForceExpire(ctx context.Context, tokenID string, cutoff, now time.Time) (int64, error)
}

// SessionStore manages sessions.
type SessionStore interface {
	Create(ctx context.Context, sess *Session) error
	// FindActiveBySecret resolves a session whose token matches secret and
	// is still live at now.
	FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*Session, error)
}

// SessionCookieStore manages the per-session key/value rows.
type SessionCookieStore interface {
	Insert(ctx context.Context, cookie *SessionCookie) error
	FindActive(ctx context.Context, sessionID, name string) (*SessionCookie, error)
	// Deactivate soft-deletes the active row for (sessionID, name) and
	// reports how many rows were flipped.
	Deactivate(ctx context.Context, sessionID, name string) (int64, error)
}

// UserStore manages identity records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindActiveByUsername(ctx context.Context, username string) (*User, error)
}

// ClearanceStore reads the seeded clearance ladder.
type ClearanceStore interface {
	// List returns all clearances ordered by sequence ascending.
	List(ctx context.Context) ([]Clearance, error)
	FindByName(ctx context.Context, name string) (*Clearance, error)
}

// ConsumerStore manages named capabilities.
type ConsumerStore interface {
	Create(ctx context.Context, c *Consumer) error
	FindActiveByName(ctx context.Context, name string) (*Consumer, error)
}

// ConsumableTokenStore manages single-use token bindings.
type ConsumableTokenStore interface {
	Create(ctx context.Context, ct *ConsumableToken) error
	// FindActiveBySecret resolves a consumable token whose underlying token
	// matches secret and is live at now, with ConsumerName populated.
	FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*ConsumableToken, error)
}
