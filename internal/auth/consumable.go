package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatehouse.org/internal/obs"
)

// GetOrCreateConsumer returns the named capability, creating it on first
// request.
func (s *Service) GetOrCreateConsumer(ctx context.Context, name string) (*Consumer, error) {
	consumers := s.store.Consumers()
	existing, err := consumers.FindActiveByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup consumer %q: %w", name, err)
	}
	c := &Consumer{
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := consumers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create consumer %q: %w", name, err)
	}
	return c, nil
}

// IssueConsumableToken mints a single-use token scoped to the named
// capability and returns it with its bearer secret.
func (s *Service) IssueConsumableToken(ctx context.Context, consumerName string, ttl time.Duration) (*ConsumableToken, string, error) {
	consumer, err := s.GetOrCreateConsumer(ctx, consumerName)
	if err != nil {
		return nil, "", err
	}
	tok, secret, err := s.mintToken(ctx, ttl)
	if err != nil {
		return nil, "", fmt.Errorf("issue consumable token: %w", err)
	}
	ct := &ConsumableToken{
		TokenID:      tok.ID,
		ConsumerID:   consumer.ID,
		ConsumerName: consumer.Name,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.ConsumableTokens().Create(ctx, ct); err != nil {
		return nil, "", fmt.Errorf("issue consumable token: %w", err)
	}
	obs.ConsumableIssued()
	s.auditEvent(ctx, "auth.consumable_issued", map[string]any{
		"consumer": consumer.Name,
		"token_id": tok.ID,
	})
	return ct, secret, nil
}

// CanConsume resolves a secret to its live consumable token and requires
// the bound capability to match consumerName. A token minted for one
// capability never authorizes another.
func (s *Service) CanConsume(ctx context.Context, secret, consumerName string) (*ConsumableToken, error) {
	ct, err := s.store.ConsumableTokens().FindActiveBySecret(ctx, secret, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("resolve consumable token: %w", err)
	}
	if ct.ConsumerName != consumerName {
		return nil, ErrCapabilityMismatch
	}
	return ct, nil
}

// Consume force-expires the token's underlying bearer credential. It
// reports true only when this call performed the transition; a concurrent
// winner leaves zero rows for everyone else, which is the at-most-once
// guarantee.
func (s *Service) Consume(ctx context.Context, ct *ConsumableToken) (bool, error) {
	won, err := s.forceExpire(ctx, ct.TokenID)
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	if won {
		obs.ConsumableRedeemed("consumed")
		s.auditEvent(ctx, "auth.consumable_consumed", map[string]any{
			"consumer": ct.ConsumerName,
			"token_id": ct.TokenID,
		})
	} else {
		obs.ConsumableRedeemed("lost_race")
	}
	return won, nil
}

// RedeemConsumableToken validates the secret against the capability, runs
// the caller's action, and consumes the token only after the action
// succeeds. A failed action leaves the token valid and retryable.
func (s *Service) RedeemConsumableToken(ctx context.Context, secret, consumerName string, action func(ctx context.Context) error) (bool, error) {
	ct, err := s.CanConsume(ctx, secret, consumerName)
	if err != nil {
		return false, err
	}
	if err := action(ctx); err != nil {
		return false, err
	}
	return s.Consume(ctx, ct)
}
