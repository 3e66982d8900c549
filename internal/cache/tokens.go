package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore garde le refresh token courant de chaque utilisateur et la liste
// noire des access tokens révoqués avant expiration.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func refreshKey(userID string) string {
	return fmt.Sprintf("refresh:%s", userID)
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}

// StoreRefreshToken remplace le refresh token de l'utilisateur (une seule session active).
func (s *TokenStore) StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKey(userID), token, ttl).Err()
}

// RefreshTokenMatches compare le token présenté avec celui enregistré.
func (s *TokenStore) RefreshTokenMatches(ctx context.Context, userID, token string) (bool, error) {
	stored, err := s.rdb.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

func (s *TokenStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, refreshKey(userID)).Err()
}

// BlacklistToken révoque un access token jusqu'à son expiration naturelle.
func (s *TokenStore) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err()
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
