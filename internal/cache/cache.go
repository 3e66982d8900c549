package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const UserCacheTTL = 5 * time.Minute

// ProductSource est la source de vérité derrière ProductCatalog.
type ProductSource interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
}

// UserSource est la source de vérité derrière UserCache.
type UserSource interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

// ProductCatalog lit les produits depuis Redis puis ScyllaDB.
// Un produit absent donne (nil, nil).
type ProductCatalog struct {
	rdb    *redis.Client
	source ProductSource
	ttl    time.Duration
	log    *zap.Logger
}

func NewProductCatalog(rdb *redis.Client, source ProductSource, ttl time.Duration, log *zap.Logger) *ProductCatalog {
	return &ProductCatalog{rdb: rdb, source: source, ttl: ttl, log: log}
}

func productKey(productID string) string {
	return "product:" + productID
}

func (c *ProductCatalog) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	key := productKey(productID)

	// 1. Essayer le cache Redis
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p models.Product
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("⚠️ Cache produit indisponible", zap.String("productId", productID), zap.Error(err))
	}

	// 2. Récupérer de ScyllaDB
	p, err := c.source.FindByID(ctx, productID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if payload, err := json.Marshal(p); err == nil {
		c.rdb.Set(ctx, key, payload, c.ttl)
	}
	return p, nil
}

func (c *ProductCatalog) Invalidate(ctx context.Context, productID string) error {
	return c.rdb.Del(ctx, productKey(productID)).Err()
}

// UserCache lit les utilisateurs depuis Redis puis ScyllaDB.
type UserCache struct {
	rdb    *redis.Client
	source UserSource
}

func NewUserCache(rdb *redis.Client, source UserSource) *UserCache {
	return &UserCache{rdb: rdb, source: source}
}

func userKey(userID string) string {
	return "user:" + userID
}

// FindByID retourne database.ErrNotFound si l'utilisateur n'existe pas.
func (c *UserCache) FindByID(ctx context.Context, userID string) (*models.User, error) {
	key := userKey(userID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedUser
		if json.Unmarshal(data, &cached) == nil {
			return cached.toUser(), nil
		}
	}

	u, err := c.source.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(fromUser(u)); err == nil {
		c.rdb.Set(ctx, key, payload, UserCacheTTL)
	}
	return u, nil
}

func (c *UserCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, userKey(userID)).Err()
}

// cachedUser ne contient jamais le hash du mot de passe.
type cachedUser struct {
	ID             string    `json:"id"`
	UserName       string    `json:"userName"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Avatar         string    `json:"avatar"`
	ProductsPosted []string  `json:"productsPosted"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func fromUser(u *models.User) cachedUser {
	return cachedUser{
		ID:             u.ID,
		UserName:       u.UserName,
		FullName:       u.FullName,
		Email:          u.Email,
		Avatar:         u.Avatar,
		ProductsPosted: u.ProductsPosted,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c cachedUser) toUser() *models.User {
	return &models.User{
		ID:             c.ID,
		UserName:       c.UserName,
		FullName:       c.FullName,
		Email:          c.Email,
		Avatar:         c.Avatar,
		ProductsPosted: c.ProductsPosted,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
