package auth

import (
	"context"
	"time"
)

const (
	defaultTokenTTL   = time.Hour
	defaultSessionTTL = time.Hour

	// forceExpireSkew keeps a force-expired token out of reach of any
	// concurrently-running "now" snapshot.
	forceExpireSkew = time.Second
)

// AuditFunc receives structured audit events emitted by the service.
type AuditFunc func(ctx context.Context, event string, fields map[string]any)

// Service exposes the auth core to a hosting application: sessions with
// sliding expiry, the per-session cookie store, single-use consumable
// tokens, and password-backed user identity.
type Service struct {
	store Store
	now   func() time.Time

	tokenTTL   time.Duration
	sessionTTL time.Duration
	audit      AuditFunc
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithTokenTTL configures the default lifetime for newly minted tokens.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithSessionTTL configures the sliding window added on each session touch.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithAuditLog registers a sink for audit events.
func WithAuditLog(fn AuditFunc) ServiceOption {
	return func(s *Service) { s.audit = fn }
}

// NewService constructs a Service on top of a Store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:      store,
		now:        time.Now,
		tokenTTL:   defaultTokenTTL,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) auditEvent(ctx context.Context, event string, fields map[string]any) {
	if s.audit != nil {
		s.audit(ctx, event, fields)
	}
}

// mintToken creates a fresh token with an unguessable secret. A zero ttl
// falls back to the service default.
func (s *Service) mintToken(ctx context.Context, ttl time.Duration) (*Token, string, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	secret, err := NewSecret()
	if err != nil {
		return nil, "", err
	}
	now := s.now().UTC()
	tok := &Token{
		Secret:    secret,
		CreatedAt: now,
		ExpiredAt: now.Add(ttl),
	}
	if err := s.store.Tokens().Create(ctx, tok); err != nil {
		return nil, "", err
	}
	return tok, secret, nil
}

// forceExpire expires a token with the single atomic conditional update and
// reports whether this call won the transition.
func (s *Service) forceExpire(ctx context.Context, tokenID string) (bool, error) {
	now := s.now().UTC()
	affected, err := s.store.Tokens().ForceExpire(ctx, tokenID, now.Add(-forceExpireSkew), now)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
