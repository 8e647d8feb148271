package auth

import "time"

// Clearance is a ranked authorization level. Lower sequence means more
// privileged. Rows are seeded by migration and never written by the core.
type Clearance struct {
	ID       string
	Sequence int64
	Name     string
}

// User is an identity record bound to a Clearance. Users are never
// hard-deleted; the active flag retires them while keeping the username
// reusable.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Salt         string
	Active       bool
	ClearanceID  string
	CreatedAt    time.Time
}

// Token is an opaque bearer credential. Validity is purely time-based:
// a token is live while ExpiredAt is in the future. Rows are never deleted,
// expiry is mutated instead.
type Token struct {
	ID        string
	Secret    string
	CreatedAt time.Time
	ExpiredAt time.Time
}

// Session wraps exactly one Token into a long-lived login context.
// It carries no user reference; the LOGIN cookie does.
type Session struct {
	ID        string
	TokenID   string
	CreatedAt time.Time
}

// SessionCookie is a key/value entry scoped to a Session. Writes supersede
// rather than overwrite: the prior row is soft-deleted and a fresh one
// inserted, so at most one row per (session, name) is active at a time.
type SessionCookie struct {
	ID        string
	SessionID string
	Name      string
	Value     string
	Active    bool
	CreatedAt time.Time
}

// Consumer is a named capability a consumable token can be scoped to,
// e.g. "create_user".
type Consumer struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// ConsumableToken binds a Token to a Consumer for single use. Consuming it
// force-expires the underlying Token. ConsumerName is populated by lookups
// that join the consumer row.
type ConsumableToken struct {
	ID           string
	TokenID      string
	ConsumerID   string
	ConsumerName string
	CreatedAt    time.Time
}
