package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idempotency:"
	revokedPrefix     = "revoked:"
)

// ClaimIdempotencyKey binds key to complaintID unless it is already bound.
// It returns the bound id and whether this call made the binding.
func (s *Service) ClaimIdempotencyKey(ctx context.Context, key, complaintID string, ttl time.Duration) (string, bool, error) {
	rk := idempotencyPrefix + key
	ok, err := s.Redis.SetNX(ctx, rk, complaintID, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("storage: claim idempotency key: %w", err)
	}
	if ok {
		return complaintID, true, nil
	}

	owner, err := s.Redis.Get(ctx, rk).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = s.Redis.SetNX(ctx, rk, complaintID, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("storage: claim idempotency key: %w", err)
		}
		return complaintID, ok, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: read idempotency key: %w", err)
	}
	return owner, false, nil
}

// ReleaseIdempotencyKey forgets a key whose submission did not go through.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return s.Redis.Del(ctx, idempotencyPrefix+key).Err()
}

// RevokeToken marks a token id as logged out until it would have expired anyway.
func (s *Service) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
}

// IsTokenRevoked reports whether the token id was revoked.
func (s *Service) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.Redis.Get(ctx, revokedPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PublishEvent publishes a lifecycle event on EventsChannel.
func (s *Service) PublishEvent(ctx context.Context, ev models.LiveEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, EventsChannel, payload).Err()
}

func (s *Service) SubscribeEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, EventsChannel)
}
