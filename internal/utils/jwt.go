package utils

import (
	"errors"
	"fmt"
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims portées par les access et refresh tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	UserName string `json:"userName,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signe et vérifie les tokens HS256. Access et refresh tokens
// utilisent des secrets distincts.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GenerateAccessToken embarque user_id, userName et email.
func (t *TokenIssuer) GenerateAccessToken(user *models.User) (string, error) {
	return t.sign(Claims{UserID: user.ID, UserName: user.UserName, Email: user.Email}, t.accessSecret, t.AccessTTL)
}

// GenerateRefreshToken n'embarque que user_id.
func (t *TokenIssuer) GenerateRefreshToken(user *models.User) (string, error) {
	return t.sign(Claims{UserID: user.ID}, t.refreshSecret, t.RefreshTTL)
}

func (t *TokenIssuer) ParseAccessToken(token string) (*Claims, error) {
	return t.parse(token, t.accessSecret)
}

func (t *TokenIssuer) ParseRefreshToken(token string) (*Claims, error) {
	return t.parse(token, t.refreshSecret)
}

func (t *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("token invalide: %w", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, errors.New("token invalide: user_id manquant")
	}
	return claims, nil
}
