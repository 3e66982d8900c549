package middleware

import (
	"net/http"
	"time"

	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger journalise chaque requête avec zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := c.GetString(CtxUserID); id != "" {
			fields = append(fields, zap.String("userId", id))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("❌ Requête", fields...)
		case status >= 400:
			log.Warn("⚠️ Requête", fields...)
		default:
			log.Info("✅ Requête", fields...)
		}
	}
}

// Recovery remplace gin.Recovery pour journaliser les panics avec zap.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("❌ Panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		utils.Abort(c, http.StatusInternalServerError, "Internal server error")
	})
}

// BodyLimit borne la taille du corps des requêtes.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
