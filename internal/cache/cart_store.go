package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrCartExists = errors.New("panier déjà existant")

// Notifications publiées sur CartChannel après chaque écriture.
const (
	CartUpdated = "updated"
	CartCleared = "cleared"
)

// createCart : KEYS[2] = canal, ARGV[1] = TTL en secondes, ARGV[2..] = paires champ/valeur.
var createCart = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('EXPIRE', KEYS[1], ARGV[1])
redis.call('PUBLISH', KEYS[2], '` + CartUpdated + `')
return 1
`)

// clearCart : KEYS[2] = canal, ARGV[1] = TTL en secondes, ARGV[2] = updatedAt.
var clearCart = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HSET', KEYS[1], 'items', '[]', 'totalQuantity', '0', 'totalPrice', '0', 'updatedAt', ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[1])
redis.call('PUBLISH', KEYS[2], '` + CartCleared + `')
return redis.call('HGETALL', KEYS[1])
`)

// CartStore range chaque panier dans un hash Redis cart:<userId>.
type CartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartStore(rdb *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{rdb: rdb, ttl: ttl}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// CartChannel est le canal pub/sub des changements du panier.
func CartChannel(userID string) string {
	return "cart:" + userID
}

func encodeCart(c *models.Cart) ([]interface{}, error) {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		"id", c.ID,
		"userId", c.UserID,
		"items", string(data),
		"totalQuantity", strconv.Itoa(c.TotalQuantity),
		"totalPrice", c.TotalPrice.String(),
		"createdAt", c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt", c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func decodeCart(fields map[string]string) (*models.Cart, error) {
	c := &models.Cart{ID: fields["id"], UserID: fields["userId"]}

	if err := json.Unmarshal([]byte(fields["items"]), &c.Items); err != nil {
		return nil, fmt.Errorf("décodage items: %w", err)
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}

	var err error
	if c.TotalQuantity, err = strconv.Atoi(fields["totalQuantity"]); err != nil {
		return nil, fmt.Errorf("décodage totalQuantity: %w", err)
	}
	if c.TotalPrice, err = decimal.NewFromString(fields["totalPrice"]); err != nil {
		return nil, fmt.Errorf("décodage totalPrice: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["createdAt"]); err != nil {
		return nil, fmt.Errorf("décodage createdAt: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updatedAt"]); err != nil {
		return nil, fmt.Errorf("décodage updatedAt: %w", err)
	}
	return c, nil
}

func (s *CartStore) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	fields, err := s.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeCart(fields)
}

func (s *CartStore) Create(ctx context.Context, c *models.Cart) error {
	fields, err := encodeCart(c)
	if err != nil {
		return err
	}

	args := append([]interface{}{int64(s.ttl.Seconds())}, fields...)
	keys := []string{cartKey(c.UserID), CartChannel(c.UserID)}
	created, err := createCart.Run(ctx, s.rdb, keys, args...).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return ErrCartExists
	}
	return nil
}

func (s *CartStore) Save(ctx context.Context, c *models.Cart) error {
	fields, err := encodeCart(c)
	if err != nil {
		return err
	}

	key := cartKey(c.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields...)
		pipe.Expire(ctx, key, s.ttl)
		pipe.Publish(ctx, CartChannel(c.UserID), CartUpdated)
		return nil
	})
	return err
}

func (s *CartStore) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	keys := []string{cartKey(userID), CartChannel(userID)}
	raw, err := clearCart.Run(ctx, s.rdb, keys, int64(s.ttl.Seconds()), now).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		fields[raw[i]] = raw[i+1]
	}
	return decodeCart(fields)
}

// Subscribe ouvre un abonnement aux notifications du panier (synchronisation temps réel).
func (s *CartStore) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, CartChannel(userID))
}
