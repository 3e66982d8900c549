package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[string]*models.User

func (s stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

type stubRevocations map[string]bool

func (s stubRevocations) IsBlacklisted(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

var testUser = &models.User{ID: "u-1", UserName: "ada", Email: "ada@example.com"}

func newAuthRouter(issuer *utils.TokenIssuer, revoked RevocationList) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(issuer, revoked, stubUsers{"u-1": testUser}, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":       c.GetString(CtxUserID),
			"userName": c.GetString(CtxUserName),
			"email":    c.GetString(CtxEmail),
		})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	issuer := utils.NewTokenIssuer("access-secret-0001", "refresh-secret-001", time.Minute, time.Hour)
	valid, err := issuer.GenerateAccessToken(testUser)
	require.NoError(t, err)
	refresh, err := issuer.GenerateRefreshToken(testUser)
	require.NoError(t, err)
	ghost, err := issuer.GenerateAccessToken(&models.User{ID: "u-404"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"sans token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer valide", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK},
		{"cookie valide", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: valid}) }, http.StatusOK},
		{"token corrompu", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") }, http.StatusUnauthorized},
		{"refresh token refusé", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+refresh) }, http.StatusUnauthorized},
		{"utilisateur inconnu", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost) }, http.StatusUnauthorized},
		{"schéma invalide", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) }, http.StatusUnauthorized},
	}

	router := newAuthRouter(issuer, stubRevocations{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"u-1","userName":"ada","email":"ada@example.com"}`, w.Body.String())
			}
		})
	}
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	issuer := utils.NewTokenIssuer("access-secret-0001", "refresh-secret-001", time.Minute, time.Hour)
	token, err := issuer.GenerateAccessToken(testUser)
	require.NoError(t, err)
	claims, err := issuer.ParseAccessToken(token)
	require.NoError(t, err)

	router := newAuthRouter(issuer, stubRevocations{claims.ID: true})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func TestCartRateLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int{}}
	r := gin.New()
	r.POST("/add", func(c *gin.Context) { c.Set(CtxUserID, c.GetHeader("X-User")) },
		CartRateLimit(limiter, 2, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/add", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("u-1"))
	assert.Equal(t, http.StatusOK, send("u-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("u-1"))
	assert.Equal(t, http.StatusOK, send("u-2"))
	assert.Equal(t, 3, limiter.counts["cart_add:u-1"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/register", RegisterRateLimit(limiter, 1, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), RequestLogger(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
