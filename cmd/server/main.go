package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/cart"
	"ecommerce_back_end/internal/config"
	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/handlers/product"
	"ecommerce_back_end/internal/handlers/user"
	"ecommerce_back_end/internal/logger"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/routes"
	"ecommerce_back_end/internal/services"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration: %v", err)
	}

	zl, err := logger.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		log.Fatalf("❌ Logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("❌ Arrêt du serveur", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := database.ConnectDatabases(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("connexion bases: %w", err)
	}
	defer clients.Close()

	// Stockage
	productRepo := database.NewProductRepository(clients.Scylla)
	userRepo := database.NewUserRepository(clients.Scylla)
	productIndex := services.NewProductIndex(clients.Elastic, cfg.Elastic.ProductIndex, zl)
	if err := productIndex.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("index produits: %w", err)
	}
	images := services.NewImageStore(clients.MinIO, cfg.MinIO.Bucket, cfg.MinIO.Endpoint, cfg.MinIO.PublicURL, cfg.MinIO.UseSSL, zl)

	// Redis
	cartStore := cache.NewCartStore(clients.Redis, cfg.Cart.TTL)
	catalog := cache.NewProductCatalog(clients.Redis, productRepo, cfg.Cart.ProductCacheTTL, zl)
	userCache := cache.NewUserCache(clients.Redis, userRepo)
	tokens := cache.NewTokenStore(clients.Redis)
	limiter := cache.NewRateLimiter(clients.Redis)

	issuer := utils.NewTokenIssuer(cfg.Auth.AccessTokenSecret, cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)

	cartService := cart.NewService(cartStore, catalog, zl)

	handlers := routes.Handlers{
		Auth:     user.NewAuthHandler(userRepo, images, tokens, issuer, cfg.Auth.SecureCookies, zl),
		Cart:     user.NewCartHandler(cartService, zl),
		CartSync: user.NewCartSync(cartService, cartStore, cfg.Server.CORSOrigin, zl),
		Products: product.NewHandler(productRepo, userRepo, images, productIndex, catalog, userCache, zl),

		RequireAuth:    middleware.AuthRequired(issuer, tokens, userCache, zl),
		CartRateLimit:  middleware.CartRateLimit(limiter, cfg.Cart.AddLimitPerMinute, zl),
		RegisterLimit:  middleware.RegisterRateLimit(limiter, cfg.Auth.RegisterLimitPerIP, zl),
		LoginRateLimit: middleware.LoginRateLimit(limiter, cfg.Auth.LoginLimitPerIP, cfg.Auth.LoginLimitWindow, zl),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.BodyLimit
	r.Use(middleware.Recovery(zl), middleware.RequestLogger(zl), middleware.BodyLimit(cfg.Server.BodyLimit))
	routes.RegisterRoutes(r, cfg.Server, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("🚀 Serveur lancé", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("🧹 Arrêt en cours...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
