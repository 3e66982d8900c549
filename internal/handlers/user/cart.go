package user

import (
	"context"
	"errors"
	"net/http"

	"ecommerce_back_end/internal/cart"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartService interface {
	AddItem(ctx context.Context, userID string, cmd cart.AddItemCommand) (*models.Cart, error)
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID string, cmd cart.UpdateItemCommand) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string) (*models.Cart, error)
}

type CartHandler struct {
	carts CartService
	log   *zap.Logger
}

func NewCartHandler(carts CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

// cartError traduit une erreur du panier en réponse HTTP.
func (h *CartHandler) cartError(c *gin.Context, err error) {
	var cerr *cart.Error
	if !errors.As(err, &cerr) {
		h.log.Error("❌ Erreur panier inattendue", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch cerr.Kind {
	case cart.KindValidation:
		utils.Error(c, http.StatusBadRequest, cerr.Message)
	case cart.KindNotFound:
		utils.Error(c, http.StatusNotFound, cerr.Message)
	default:
		utils.Error(c, http.StatusInternalServerError, cerr.Message)
	}
}

//
// 🟢 POST /api/v1/cart/add-to-cart
//
func (h *CartHandler) AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, http.StatusBadRequest, cart.MsgInvalidAddInput)
		return
	}

	updated, err := h.carts.AddItem(c.Request.Context(), c.GetString(middleware.CtxUserID), cart.AddItemCommand{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		h.cartError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, updated, cart.MsgItemAdded)
}

//
// 🛒 GET /api/v1/cart/show-cart
//
func (h *CartHandler) ShowCart(c *gin.Context) {
	current, err := h.carts.GetCart(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.cartError(c, err)
		return
	}
	if current == nil {
		utils.Success(c, http.StatusOK, gin.H{}, cart.MsgNoItemsInCart)
		return
	}
	utils.Success(c, http.StatusOK, current.Items, cart.MsgCartFetched)
}

//
// ✏️ PATCH /api/v1/cart/update-item
//
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, http.StatusBadRequest, cart.MsgInvalidAddInput)
		return
	}

	updated, err := h.carts.UpdateItemQuantity(c.Request.Context(), c.GetString(middleware.CtxUserID), cart.UpdateItemCommand{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		h.cartError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, updated, cart.MsgItemUpdated)
}

//
// 🧹 DELETE /api/v1/cart/clear-all
//
func (h *CartHandler) ClearAll(c *gin.Context) {
	cleared, err := h.carts.ClearCart(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.cartError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, cleared, cart.MsgCartCleared)
}

//
// ❌ DELETE /api/v1/cart/delete-one
//
func (h *CartHandler) DeleteOne(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId"`
	}
	// corps optionnel : productId peut aussi venir de la query
	_ = c.ShouldBindJSON(&input)
	if input.ProductID == "" {
		input.ProductID = c.Query("productId")
	}

	updated, err := h.carts.RemoveItem(c.Request.Context(), c.GetString(middleware.CtxUserID), input.ProductID)
	if err != nil {
		h.cartError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, updated, cart.MsgItemRemoved)
}
