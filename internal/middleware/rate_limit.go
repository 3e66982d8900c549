package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// rateLimit refuse la requête avec 429 quand key(c) dépasse limit sur window.
// Une clé vide ou une panne de Redis laisse passer la requête.
func rateLimit(limiter Limiter, limit int, window time.Duration, message string, key func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		ok, err := limiter.Allow(c.Request.Context(), k, limit, window)
		if err != nil {
			log.Warn("⚠️ Rate limit indisponible", zap.String("key", k), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			utils.Abort(c, http.StatusTooManyRequests, message)
			return
		}
		c.Next()
	}
}

// CartRateLimit limite les ajouts au panier par utilisateur (anti-spam).
func CartRateLimit(limiter Limiter, perMinute int, log *zap.Logger) gin.HandlerFunc {
	return rateLimit(limiter, perMinute, time.Minute, "Too many cart updates, slow down", func(c *gin.Context) string {
		if id := c.GetString(CtxUserID); id != "" {
			return "cart_add:" + id
		}
		return ""
	}, log)
}

// RegisterRateLimit limite les inscriptions par IP.
func RegisterRateLimit(limiter Limiter, perHour int, log *zap.Logger) gin.HandlerFunc {
	return rateLimit(limiter, perHour, time.Hour, "Too many accounts created from this IP", func(c *gin.Context) string {
		return "register:" + c.ClientIP()
	}, log)
}

// LoginRateLimit limite les tentatives de connexion par IP.
func LoginRateLimit(limiter Limiter, perWindow int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return rateLimit(limiter, perWindow, window, "Too many login attempts, try again later", func(c *gin.Context) string {
		return "login:" + c.ClientIP()
	}, log)
}
