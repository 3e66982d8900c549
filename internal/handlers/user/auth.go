package user

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RefreshTokenCookie = "refreshToken"

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error)
}

type SessionStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	RefreshTokenMatches(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthHandler struct {
	users         UserStore
	images        ImageUploader
	sessions      SessionStore
	issuer        *utils.TokenIssuer
	secureCookies bool
	log           *zap.Logger
}

func NewAuthHandler(users UserStore, images ImageUploader, sessions SessionStore, issuer *utils.TokenIssuer, secureCookies bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:         users,
		images:        images,
		sessions:      sessions,
		issuer:        issuer,
		secureCookies: secureCookies,
		log:           log,
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", h.secureCookies, true)
}

// exists vérifie si email ou userName sont déjà pris.
func (h *AuthHandler) exists(ctx context.Context, email, userName string) (bool, error) {
	if _, err := h.users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}
	if _, err := h.users.FindByUserName(ctx, userName); err == nil {
		return true, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}
	return false, nil
}

//
// 🟢 POST /api/v1/users/register (multipart)
//
func (h *AuthHandler) Register(c *gin.Context) {
	userName := strings.ToLower(strings.TrimSpace(c.PostForm("userName")))
	fullName := strings.TrimSpace(c.PostForm("fullName"))
	email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	password := c.PostForm("password")

	if userName == "" || fullName == "" || email == "" || strings.TrimSpace(password) == "" {
		utils.Error(c, http.StatusBadRequest, "All fields are required!")
		return
	}

	ctx := c.Request.Context()
	taken, err := h.exists(ctx, email, userName)
	if err != nil {
		h.log.Error("❌ Vérification utilisateur existant", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "User not created!")
		return
	}
	if taken {
		utils.Error(c, http.StatusConflict, "User already exists")
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Profile image is required!")
		return
	}
	avatar, err := h.images.Upload(ctx, avatarFile, "avatars")
	if err != nil {
		h.log.Warn("⚠️ Upload avatar échoué", zap.Error(err))
		utils.Error(c, http.StatusBadRequest, "Profile image is required!")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "User not created!")
		return
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:             uuid.NewString(),
		UserName:       userName,
		FullName:       fullName,
		Email:          email,
		Password:       hash,
		Avatar:         avatar,
		ProductsPosted: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.users.Create(ctx, u); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			utils.Error(c, http.StatusConflict, "User already exists")
			return
		}
		h.log.Error("❌ Création utilisateur", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "User not created!")
		return
	}

	h.log.Info("✅ Utilisateur créé", zap.String("userId", u.ID), zap.String("userName", u.UserName))
	utils.Success(c, http.StatusOK, u, "User Created Successfully")
}

//
// 🔑 POST /api/v1/users/login
//
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		UserName string `json:"userName"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || (input.Email == "" && input.UserName == "") || input.Password == "" {
		utils.Error(c, http.StatusBadRequest, "Username or email and password are required")
		return
	}

	ctx := c.Request.Context()
	var (
		u   *models.User
		err error
	)
	if input.Email != "" {
		u, err = h.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	} else {
		u, err = h.users.FindByUserName(ctx, strings.ToLower(strings.TrimSpace(input.UserName)))
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.Error(c, http.StatusUnauthorized, "Invalid user credentials")
		return
	}
	if err != nil {
		h.log.Error("❌ Lecture utilisateur (login)", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok, err := utils.VerifyPassword(input.Password, u.Password)
	if err != nil {
		h.log.Warn("⚠️ Hash mot de passe illisible", zap.String("userId", u.ID), zap.Error(err))
	}
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "Invalid user credentials")
		return
	}

	access, refresh, err := h.issueTokens(ctx, u)
	if err != nil {
		h.log.Error("❌ Génération des tokens", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Something went wrong while generating tokens")
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, access, h.issuer.AccessTTL)
	h.setCookie(c, RefreshTokenCookie, refresh, h.issuer.RefreshTTL)
	utils.Success(c, http.StatusOK, gin.H{
		"user":         u,
		"accessToken":  access,
		"refreshToken": refresh,
	}, "User logged in successfully")
}

func (h *AuthHandler) issueTokens(ctx context.Context, u *models.User) (string, string, error) {
	access, err := h.issuer.GenerateAccessToken(u)
	if err != nil {
		return "", "", err
	}
	refresh, err := h.issuer.GenerateRefreshToken(u)
	if err != nil {
		return "", "", err
	}
	if err := h.sessions.StoreRefreshToken(ctx, u.ID, refresh, h.issuer.RefreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

//
// 🔄 POST /api/v1/users/refresh-token
//
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var input struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.ShouldBindJSON(&input)
		token = input.RefreshToken
	}
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	claims, err := h.issuer.ParseRefreshToken(token)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	ok, err := h.sessions.RefreshTokenMatches(ctx, claims.UserID, token)
	if err != nil {
		h.log.Error("❌ Lecture refresh token", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "Refresh token is expired or used")
		return
	}

	u, err := h.users.FindByID(ctx, claims.UserID)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, err := h.issuer.GenerateAccessToken(u)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "Something went wrong while generating tokens")
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, access, h.issuer.AccessTTL)
	utils.Success(c, http.StatusOK, gin.H{"accessToken": access}, "Access token refreshed")
}

//
// 🚪 POST /api/v1/users/logout
//
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(middleware.CtxUserID)

	if err := h.sessions.DeleteRefreshToken(ctx, userID); err != nil {
		h.log.Error("❌ Suppression refresh token", zap.String("userId", userID), zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if jti := c.GetString(middleware.CtxTokenID); jti != "" {
		if err := h.sessions.BlacklistToken(ctx, jti, middleware.TokenRemaining(c)); err != nil {
			h.log.Warn("⚠️ Révocation access token", zap.Error(err))
		}
	}

	h.setCookie(c, middleware.AccessTokenCookie, "", -time.Second)
	h.setCookie(c, RefreshTokenCookie, "", -time.Second)
	utils.Success(c, http.StatusOK, gin.H{}, "User logged out")
}

//
// 👤 GET /api/v1/users/fetch-users-profile/:userName
//
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.users.FindByUserName(c.Request.Context(), strings.ToLower(c.Param("userName")))
	if errors.Is(err, database.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.log.Error("❌ Lecture profil", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.Success(c, http.StatusOK, u, "User profile fetched successfully")
}
