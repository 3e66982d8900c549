package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Clés posées dans le contexte gin par AuthRequired.
const (
	CtxUserID      = "user_id"
	CtxUserName    = "user_name"
	CtxEmail       = "email"
	CtxTokenID     = "token_id"
	CtxTokenExpiry = "token_expiry"
)

const AccessTokenCookie = "accessToken"

type UserLookup interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

type RevocationList interface {
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// bearerToken lit le cookie accessToken puis l'en-tête Authorization.
func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func AuthRequired(issuer *utils.TokenIssuer, revoked RevocationList, users UserLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.Abort(c, http.StatusUnauthorized, "Unauthorized request")
			return
		}

		claims, err := issuer.ParseAccessToken(token)
		if err != nil {
			log.Debug("❌ Token refusé", zap.Error(err))
			utils.Abort(c, http.StatusUnauthorized, "Invalid access token")
			return
		}

		ctx := c.Request.Context()
		if revoked != nil {
			blacklisted, err := revoked.IsBlacklisted(ctx, claims.ID)
			if err != nil {
				log.Warn("⚠️ Erreur vérification blacklist", zap.Error(err))
			}
			if blacklisted {
				utils.Abort(c, http.StatusUnauthorized, "Invalid access token")
				return
			}
		}

		user, err := users.FindByID(ctx, claims.UserID)
		if errors.Is(err, database.ErrNotFound) {
			utils.Abort(c, http.StatusUnauthorized, "Invalid access token")
			return
		}
		if err != nil {
			log.Error("❌ Lecture utilisateur impossible", zap.String("userId", claims.UserID), zap.Error(err))
			utils.Abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUserName, user.UserName)
		c.Set(CtxEmail, user.Email)
		c.Set(CtxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// TokenRemaining retourne la durée de validité restante de l'access token courant.
func TokenRemaining(c *gin.Context) time.Duration {
	exp, ok := c.Get(CtxTokenExpiry)
	if !ok {
		return 0
	}
	t, _ := exp.(time.Time)
	return time.Until(t)
}
