package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"user-account-backend/internal/queue"
	"user-account-backend/pkg/utils"
)

//go:generate mockgen -destination=mocks/publisher.go -package=mocks user-account-backend/internal/service EventPublisher

// PasswordHasher hashes and checks credentials
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, digest string) bool
	VerifyDummy(ctx context.Context, password string) bool
}

// TokenIssuer mints and checks tokens
type TokenIssuer interface {
	IssueAccessToken(userID uint) (string, time.Time, error)
	IssueRefreshToken(userID uint, ttl time.Duration) (string, time.Time, error)
	VerifyAccessToken(token string) (*utils.Claims, error)
	Now() time.Time
}

// EventPublisher announces account events to other services
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, ev queue.UserCreatedEvent) error
}

// Cache is a byte-oriented key value store with per-key expiry
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// principalCache keeps resolved principals for a short while.
// Every cache failure degrades to a miss.
type principalCache struct {
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

func newPrincipalCache(cache Cache, ttl time.Duration, log *slog.Logger) *principalCache {
	if cache == nil {
		return nil
	}
	return &principalCache{cache: cache, ttl: ttl, log: log}
}

func principalKey(userID uint) string {
	return fmt.Sprintf("user:principal:%d", userID)
}

func (p *principalCache) get(ctx context.Context, userID uint) (*UserResponse, bool) {
	if p == nil || p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, principalKey(userID))
	if err != nil {
		return nil, false
	}
	var user UserResponse
	if err := json.Unmarshal(raw, &user); err != nil || user.ID != userID {
		return nil, false
	}
	return &user, true
}

func (p *principalCache) put(ctx context.Context, user *UserResponse) {
	if p == nil || p.cache == nil || p.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, principalKey(user.ID), raw, p.ttl); err != nil {
		p.log.Debug("principal cache write failed", "user_id", user.ID, "error", err)
	}
}

func (p *principalCache) evict(ctx context.Context, userID uint) {
	if p == nil || p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, principalKey(userID)); err != nil {
		p.log.Warn("principal cache eviction failed", "user_id", userID, "error", err)
	}
}
