package routes

import (
	"strings"
	"time"

	"ecommerce_back_end/internal/config"
	"ecommerce_back_end/internal/handlers/product"
	"ecommerce_back_end/internal/handlers/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers regroupe tout ce que les routes montent.
type Handlers struct {
	Auth     *user.AuthHandler
	Cart     *user.CartHandler
	CartSync *user.CartSync
	Products *product.Handler

	RequireAuth    gin.HandlerFunc
	CartRateLimit  gin.HandlerFunc
	RegisterLimit  gin.HandlerFunc
	LoginRateLimit gin.HandlerFunc
}

func corsConfig(cfg config.ServerConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSOrigin == "*" {
		// développement uniquement (refusé en production par la config) : on renvoie l'origine de la requête
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		for _, origin := range strings.Split(cfg.CORSOrigin, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowOrigins = append(c.AllowOrigins, origin)
			}
		}
	}
	return c
}

func RegisterRoutes(r *gin.Engine, cfg config.ServerConfig, h Handlers) {
	r.Use(cors.New(corsConfig(cfg)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Users
	users := v1.Group("/users")
	users.POST("/register", h.RegisterLimit, h.Auth.Register)
	users.POST("/login", h.LoginRateLimit, h.Auth.Login)
	users.POST("/refresh-token", h.Auth.RefreshToken)
	users.POST("/logout", h.RequireAuth, h.Auth.Logout)
	users.GET("/fetch-users-profile/:userName", h.Auth.Profile)

	// Products
	products := v1.Group("/products")
	products.GET("/fetch-all-products", h.Products.FetchAllProducts)
	products.POST("/create-product", h.RequireAuth, h.Products.CreateProduct)
	products.PATCH("/edit-product-details", h.RequireAuth, h.Products.EditProduct)
	products.DELETE("/delete-product", h.RequireAuth, h.Products.DeleteProduct)

	// Cart
	cart := v1.Group("/cart", h.RequireAuth)
	cart.POST("/add-to-cart", h.CartRateLimit, h.Cart.AddToCart)
	cart.GET("/show-cart", h.Cart.ShowCart)
	cart.PATCH("/update-item", h.Cart.UpdateItem)
	cart.DELETE("/clear-all", h.Cart.ClearAll)
	cart.DELETE("/delete-one", h.Cart.DeleteOne)
	cart.GET("/ws", h.CartSync.CartWebSocket)
}
