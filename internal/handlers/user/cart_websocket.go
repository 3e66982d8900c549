package user

import (
	"context"
	"net/http"
	"time"

	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type CartSubscriber interface {
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

// CartSync pousse le panier au client à chaque modification publiée sur Redis.
type CartSync struct {
	carts    CartService
	sub      CartSubscriber
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewCartSync n'accepte que les connexions venant de allowedOrigin ("*" pour toutes).
func NewCartSync(carts CartService, sub CartSubscriber, allowedOrigin string, log *zap.Logger) *CartSync {
	return &CartSync{
		carts: carts,
		sub:   sub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		log: log,
	}
}

type cartEvent struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Cart    interface{} `json:"cart,omitempty"`
}

// CartWebSocket gère la synchronisation temps réel du panier (lecture seule).
func (h *CartSync) CartWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if userID == "" {
		utils.Error(c, http.StatusUnauthorized, "Unauthorized request")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.sub.Subscribe(ctx, userID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Error("❌ Abonnement panier impossible", zap.String("userId", userID), zap.Error(err))
		return
	}
	ch := pubsub.Channel()

	// Lecture en arrière-plan : détecte la fermeture côté client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, cartEvent{Type: "connected", Message: "Cart sync enabled"}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			current, err := h.carts.GetCart(ctx, userID)
			if err != nil {
				h.log.Warn("⚠️ Lecture panier pour WebSocket", zap.String("userId", userID), zap.String("event", msg.Payload), zap.Error(err))
				continue
			}
			if err := h.write(conn, cartEvent{Type: "cart_updated", Cart: current}); err != nil {
				h.log.Debug("WebSocket fermé", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *CartSync) write(conn *websocket.Conn, event cartEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(event)
}
