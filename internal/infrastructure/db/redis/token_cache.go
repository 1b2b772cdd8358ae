package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
)

const defaultCacheTTL = 10 * time.Minute

// TokenCache is a read-through cache in front of a refresh token store.
// Key format: refresh_token:<sha256(token)>
// Revocation marker: refresh_token_revoked:<sha256(token)>
//
// Reads fall through to the backing store on cache errors. Delete writes the
// revocation marker before touching the store; once it is set, FindByToken
// reports the token unknown even if a concurrent read re-caches the record.
type TokenCache struct {
	client *redis.Client
	next   ports.RefreshTokenRepository
	ttl    time.Duration
	log    zerolog.Logger
}

func NewTokenCache(client *redis.Client, next ports.RefreshTokenRepository, ttl time.Duration, log zerolog.Logger) *TokenCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &TokenCache{client: client, next: next, ttl: ttl, log: log}
}

type cachedRecord struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *TokenCache) Insert(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	if err := c.next.Insert(ctx, rec); err != nil {
		return err
	}
	c.store(ctx, rec)
	return nil
}

func (c *TokenCache) FindByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	vals, err := c.client.MGet(ctx, c.revokedKey(token), c.key(token)).Result()
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("token cache read failed")
	case vals[0] != nil:
		return nil, domain.ErrUnknownRefreshToken
	case vals[1] != nil:
		raw, _ := vals[1].(string)
		var cr cachedRecord
		if jerr := json.Unmarshal([]byte(raw), &cr); jerr == nil {
			return &domain.RefreshTokenRecord{
				Token:     token,
				UserID:    cr.UserID,
				CreatedAt: cr.CreatedAt,
				ExpiresAt: cr.ExpiresAt,
			}, nil
		}
		c.log.Warn().Msg("discarding undecodable cached refresh token")
	}

	rec, err := c.next.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	c.store(ctx, rec)
	return rec, nil
}

// Delete revokes token in the cache, removes it from the store and evicts
// the cached record. If the marker cannot be written nothing is deleted.
func (c *TokenCache) Delete(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	if err := c.client.Set(ctx, c.revokedKey(token), "1", c.revokedTTL()).Err(); err != nil {
		return nil, fmt.Errorf("revoke refresh token in cache: %w", err)
	}

	rec, err := c.next.Delete(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrUnknownRefreshToken) {
		return nil, err
	}

	if derr := c.client.Del(ctx, c.key(token)).Err(); derr != nil {
		c.log.Warn().Err(derr).Msg("token cache eviction failed")
	}
	return rec, err
}

func (c *TokenCache) store(ctx context.Context, rec *domain.RefreshTokenRecord) {
	ttl := c.ttl
	if left := time.Until(rec.ExpiresAt); !rec.ExpiresAt.IsZero() && left < ttl {
		if left <= 0 {
			return
		}
		ttl = left
	}
	payload, err := json.Marshal(cachedRecord{UserID: rec.UserID, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(rec.Token), payload, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("token cache write failed")
	}
}

// revokedTTL outlives any entry a racing read may write after the marker.
func (c *TokenCache) revokedTTL() time.Duration {
	return 2 * c.ttl
}

func (c *TokenCache) key(token string) string {
	return "refresh_token:" + digest(token)
}

func (c *TokenCache) revokedKey(token string) string {
	return "refresh_token_revoked:" + digest(token)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
