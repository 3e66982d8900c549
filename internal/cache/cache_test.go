package cache

import (
	"context"
	"testing"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func sampleCart(userID string) *models.Cart {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Cart{
		ID:     "c-1",
		UserID: userID,
		Items: []models.CartItem{{
			ProductID:    "p-1",
			ProductPrice: decimal.RequireFromString("3.33"),
			Quantity:     3,
			Price:        decimal.RequireFromString("9.99"),
			Image:        "http://img/p-1.png",
		}},
		TotalQuantity: 3,
		TotalPrice:    decimal.RequireFromString("9.99"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCartStore_CreateAndFind(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewCartStore(rdb, 24*time.Hour)
	ctx := context.Background()

	got, err := store.FindByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Create(ctx, sampleCart("u-1")))

	got, err = store.FindByUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c-1", got.ID)
	assert.Equal(t, 3, got.TotalQuantity)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("9.99")))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p-1", got.Items[0].ProductID)
	assert.True(t, got.Items[0].ProductPrice.Equal(decimal.RequireFromString("3.33")))
	assert.Equal(t, 24*time.Hour, mr.TTL("cart:u-1"))
}

func TestCartStore_CreateRejectsExisting(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewCartStore(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleCart("u-1")))
	err := store.Create(ctx, sampleCart("u-1"))
	assert.ErrorIs(t, err, ErrCartExists)
}

func TestCartStore_SaveOverwrites(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewCartStore(rdb, time.Hour)
	ctx := context.Background()

	c := sampleCart("u-1")
	require.NoError(t, store.Create(ctx, c))

	c.Items = append(c.Items, models.CartItem{
		ProductID:    "p-2",
		ProductPrice: decimal.NewFromInt(10),
		Quantity:     1,
		Price:        decimal.NewFromInt(10),
	})
	c.TotalQuantity = 4
	c.TotalPrice = decimal.RequireFromString("19.99")
	require.NoError(t, store.Save(ctx, c))

	got, err := store.FindByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 4, got.TotalQuantity)
	assert.Equal(t, "19.99", got.TotalPrice.String())
}

func TestCartStore_Clear(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewCartStore(rdb, time.Hour)
	ctx := context.Background()

	got, err := store.Clear(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, got, "un panier absent n'est pas créé")

	require.NoError(t, store.Create(ctx, sampleCart("u-1")))

	got, err = store.Clear(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.TotalQuantity)
	assert.True(t, got.TotalPrice.IsZero())
	assert.Equal(t, "c-1", got.ID)

	again, err := store.Clear(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, again.Items)
}

func TestCartStore_PublishesChanges(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewCartStore(rdb, time.Hour)
	ctx := context.Background()

	sub := store.Subscribe(ctx, "u-1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	require.NoError(t, store.Create(ctx, sampleCart("u-1")))
	assert.ErrorIs(t, store.Create(ctx, sampleCart("u-1")), ErrCartExists)
	_, err = store.Clear(ctx, "u-1")
	require.NoError(t, err)

	for _, want := range []string{CartUpdated, CartCleared} {
		select {
		case msg := <-ch:
			assert.Equal(t, CartChannel("u-1"), msg.Channel)
			assert.Equal(t, want, msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("notification %q non reçue", want)
		}
	}

	// un Create refusé ne publie rien
	select {
	case msg := <-ch:
		t.Fatalf("notification inattendue %q", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// commandLog enregistre les commandes envoyées par le client.
type commandLog struct {
	names []string
}

func (l *commandLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *commandLog) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		l.names = append(l.names, cmd.Name())
		return next(ctx, cmd)
	}
}

func (l *commandLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			l.names = append(l.names, cmd.Name())
		}
		return next(ctx, cmds)
	}
}

func TestCartStore_CreateAndClearPublishAtomically(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	sub := NewCartStore(rdb, time.Hour).Subscribe(ctx, "u-2")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	writer := redis.NewClient(&redis.Options{Addr: rdb.Options().Addr})
	t.Cleanup(func() { _ = writer.Close() })
	cmds := &commandLog{}
	writer.AddHook(cmds)
	store := NewCartStore(writer, time.Hour)

	require.NoError(t, store.Create(ctx, sampleCart("u-2")))
	_, err = store.Clear(ctx, "u-2")
	require.NoError(t, err)

	for _, want := range []string{CartUpdated, CartCleared} {
		select {
		case msg := <-ch:
			assert.Equal(t, want, msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("notification %q non reçue", want)
		}
	}
	assert.NotContains(t, cmds.names, "publish")
}

type countingProducts struct {
	products map[string]*models.Product
	calls    int
}

func (s *countingProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	s.calls++
	p, ok := s.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

func TestProductCatalog_ReadThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	source := &countingProducts{products: map[string]*models.Product{
		"p-1": {ID: "p-1", Name: "lamp", Price: decimal.RequireFromString("12.50"), Images: []string{"a.png"}},
	}}
	catalog := NewProductCatalog(rdb, source, time.Minute, zap.NewNop())
	ctx := context.Background()

	p, err := catalog.FindByID(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "lamp", p.Name)

	p, err = catalog.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 1, source.calls, "la deuxième lecture vient de Redis")
	assert.True(t, mr.Exists("product:p-1"))

	require.NoError(t, catalog.Invalidate(ctx, "p-1"))
	_, err = catalog.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestProductCatalog_MissingProduct(t *testing.T) {
	_, rdb := newTestRedis(t)
	catalog := NewProductCatalog(rdb, &countingProducts{}, time.Minute, zap.NewNop())

	p, err := catalog.FindByID(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, p)
}

type stubUsers struct {
	users map[string]*models.User
	calls int
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	s.calls++
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func TestUserCache_DoesNotCachePassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	source := &stubUsers{users: map[string]*models.User{
		"u-1": {ID: "u-1", UserName: "ada", Email: "ada@example.com", Password: "$argon2id$secret"},
	}}
	users := NewUserCache(rdb, source)
	ctx := context.Background()

	u, err := users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.UserName)

	raw, err := mr.Get("user:u-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "argon2id")

	u, err = users.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, 1, source.calls)

	_, err = users.FindByID(ctx, "u-2")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTokenStore(t *testing.T) {
	_, rdb := newTestRedis(t)
	tokens := NewTokenStore(rdb)
	ctx := context.Background()

	ok, err := tokens.RefreshTokenMatches(ctx, "u-1", "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tokens.StoreRefreshToken(ctx, "u-1", "t1", time.Hour))
	ok, err = tokens.RefreshTokenMatches(ctx, "u-1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tokens.StoreRefreshToken(ctx, "u-1", "t2", time.Hour))
	ok, _ = tokens.RefreshTokenMatches(ctx, "u-1", "t1")
	assert.False(t, ok, "l'ancien token est remplacé")

	require.NoError(t, tokens.DeleteRefreshToken(ctx, "u-1"))
	ok, _ = tokens.RefreshTokenMatches(ctx, "u-1", "t2")
	assert.False(t, ok)

	require.NoError(t, tokens.BlacklistToken(ctx, "jti-1", time.Minute))
	revoked, err := tokens.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = tokens.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRateLimiter_Allow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	limiter := NewRateLimiter(rdb)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "cart:u-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "cart:u-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "cart:u-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "compteurs indépendants par clé")

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "cart:u-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "nouvelle fenêtre")
}

func TestRateLimiter_WindowSetAtomically(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cmds := &commandLog{}
	rdb.AddHook(cmds)
	limiter := NewRateLimiter(rdb)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "login:1.2.3.4", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, mr.TTL("ratelimit:login:1.2.3.4"))
	assert.NotContains(t, cmds.names, "incr")
	assert.NotContains(t, cmds.names, "expire")

	// un compteur resté sans expiration reçoit une fenêtre au prochain appel
	require.NoError(t, mr.Set("ratelimit:login:5.6.7.8", "9"))
	ok, err := limiter.Allow(ctx, "login:5.6.7.8", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:login:5.6.7.8"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "login:5.6.7.8", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
