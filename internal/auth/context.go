package auth

import "context"

type ctxKey string

const (
	userKey    ctxKey = "auth_user"
	sessionKey ctxKey = "auth_session_id"
)

// ContextWithUser stores the authenticated user and session id in the
// context for downstream host code and audit logging.
func ContextWithUser(ctx context.Context, user *User, sessionID string) context.Context {
	if user != nil {
		ctx = context.WithValue(ctx, userKey, user)
	}
	if sessionID != "" {
		ctx = context.WithValue(ctx, sessionKey, sessionID)
	}
	return ctx
}

// UserFromContext extracts the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// SessionIDFromContext extracts the session id, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
