package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitWindow : ARGV[1] = fenêtre en millisecondes. La fenêtre démarre au premier INCR.
var hitWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RateLimiter compte les requêtes par clé sur une fenêtre fixe.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Allow incrémente le compteur de key et indique si limit n'est pas dépassé.
// La fenêtre démarre à la première requête.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := "ratelimit:" + key

	n, err := hitWindow.Run(ctx, r.rdb, []string{fullKey}, window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}
