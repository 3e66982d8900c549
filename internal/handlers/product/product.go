package product

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/services"
	"ecommerce_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MaxImages    = 5
	DefaultLimit = 10
	MaxLimit     = 100
)

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	Update(ctx context.Context, p *models.Product, previousName string) error
	Delete(ctx context.Context, p *models.Product) error
}

type PostedProducts interface {
	AddPostedProduct(ctx context.Context, userID, productID string) error
	RemovePostedProduct(ctx context.Context, userID, productID string) error
}

type ImageUploader interface {
	UploadMany(ctx context.Context, files []*multipart.FileHeader, prefix string) []string
}

type Index interface {
	Index(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, productID string) error
	List(ctx context.Context, page, limit int) (*services.ProductPage, error)
}

// Invalidator supprime une entrée de cache Redis.
type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

type Handler struct {
	products     ProductStore
	posted       PostedProducts
	images       ImageUploader
	index        Index
	productCache Invalidator
	userCache    Invalidator
	log          *zap.Logger
}

func NewHandler(products ProductStore, posted PostedProducts, images ImageUploader, index Index, productCache, userCache Invalidator, log *zap.Logger) *Handler {
	return &Handler{
		products:     products,
		posted:       posted,
		images:       images,
		index:        index,
		productCache: productCache,
		userCache:    userCache,
		log:          log,
	}
}

func splitCategories(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// categoryList accepte "a,b" ou ["a","b"].
type categoryList []string

func (l *categoryList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = splitCategories([]string{s})
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = splitCategories(list)
	return nil
}

// sync propage le produit vers l'index et invalide les caches. Les échecs sont
// journalisés : ScyllaDB reste la source de vérité.
func (h *Handler) sync(ctx context.Context, p *models.Product, removed bool) {
	var err error
	if removed {
		err = h.index.Remove(ctx, p.ID)
	} else {
		err = h.index.Index(ctx, p)
	}
	if err != nil {
		h.log.Warn("⚠️ Synchronisation Elasticsearch échouée", zap.String("productId", p.ID), zap.Error(err))
	}
	if err := h.productCache.Invalidate(ctx, p.ID); err != nil {
		h.log.Warn("⚠️ Invalidation cache produit", zap.String("productId", p.ID), zap.Error(err))
	}
}

//
// 🟢 POST /api/v1/products/create-product (multipart)
//
func (h *Handler) CreateProduct(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	quantityRaw := strings.TrimSpace(c.PostForm("quantity"))
	priceRaw := strings.TrimSpace(c.PostForm("price"))

	if name == "" || title == "" || description == "" || quantityRaw == "" || priceRaw == "" {
		utils.Error(c, http.StatusBadRequest, "All fields are required!")
		return
	}

	quantity, err := strconv.Atoi(quantityRaw)
	if err != nil || quantity < 0 {
		utils.Error(c, http.StatusBadRequest, "Quantity must be a non-negative integer")
		return
	}
	price, err := decimal.NewFromString(priceRaw)
	if err != nil || !price.IsPositive() {
		utils.Error(c, http.StatusBadRequest, "Price must be a positive number")
		return
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["images"]
	}
	if len(files) > MaxImages {
		utils.Error(c, http.StatusBadRequest, "A product can have at most 5 images")
		return
	}

	ctx := c.Request.Context()
	urls := h.images.UploadMany(ctx, files, "products")
	if len(urls) == 0 {
		utils.Error(c, http.StatusInternalServerError, "Image upload failed!")
		return
	}

	userID := c.GetString(middleware.CtxUserID)
	now := time.Now().UTC()
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Title:       title,
		Description: description,
		Quantity:    quantity,
		Price:       price,
		Categories:  splitCategories(c.PostFormArray("categories")),
		Images:      urls,
		PostedBy:    userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.products.Create(ctx, p); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			utils.Error(c, http.StatusConflict, "Product with this name already exists")
			return
		}
		h.log.Error("❌ Création produit", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Error while creating a product")
		return
	}

	if err := h.posted.AddPostedProduct(ctx, userID, p.ID); err != nil {
		h.log.Warn("⚠️ Ajout à productsPosted échoué", zap.String("userId", userID), zap.Error(err))
	}
	_ = h.userCache.Invalidate(ctx, userID)
	h.sync(ctx, p, false)

	h.log.Info("✅ Produit créé", zap.String("productId", p.ID), zap.String("name", p.Name))
	utils.Success(c, http.StatusCreated, p, "Product created successfully")
}

// loadOwned charge le produit et vérifie que l'appelant en est le vendeur.
func (h *Handler) loadOwned(c *gin.Context, productID, notFound, forbidden string) (*models.Product, bool) {
	p, err := h.products.FindByID(c.Request.Context(), productID)
	if errors.Is(err, database.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, notFound)
		return nil, false
	}
	if err != nil {
		h.log.Error("❌ Lecture produit", zap.String("productId", productID), zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Error while fetching product")
		return nil, false
	}
	if p.PostedBy != c.GetString(middleware.CtxUserID) {
		utils.Error(c, http.StatusForbidden, forbidden)
		return nil, false
	}
	return p, true
}

//
// ✏️ PATCH /api/v1/products/edit-product-details
//
func (h *Handler) EditProduct(c *gin.Context) {
	var input struct {
		ProductID   string           `json:"productId"`
		Name        string           `json:"name"`
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Quantity    *int             `json:"quantity"`
		Price       *decimal.Decimal `json:"price"`
		Categories  *categoryList    `json:"categories"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid product details")
		return
	}
	if input.ProductID == "" {
		utils.Error(c, http.StatusBadRequest, "Please provide product id to update its details!")
		return
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		utils.Error(c, http.StatusBadRequest, "Quantity must be a non-negative integer")
		return
	}
	if input.Price != nil && !input.Price.IsPositive() {
		utils.Error(c, http.StatusBadRequest, "Price must be a positive number")
		return
	}

	p, ok := h.loadOwned(c, input.ProductID, "Product Not Found", "You Are Not Authorized to Update This Product!")
	if !ok {
		return
	}

	previousName := p.Name
	if name := strings.TrimSpace(input.Name); name != "" {
		p.Name = name
	}
	if input.Title != "" {
		p.Title = input.Title
	}
	if input.Description != "" {
		p.Description = input.Description
	}
	if input.Quantity != nil {
		p.Quantity = *input.Quantity
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Categories != nil {
		p.Categories = *input.Categories
	}
	p.UpdatedAt = time.Now().UTC()

	ctx := c.Request.Context()
	if err := h.products.Update(ctx, p, previousName); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			utils.Error(c, http.StatusConflict, "Product with this name already exists")
			return
		}
		h.log.Error("❌ Mise à jour produit", zap.String("productId", p.ID), zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Error while updating the product")
		return
	}

	h.sync(ctx, p, false)
	utils.Success(c, http.StatusOK, p, "Product updated successfully")
}

//
// ❌ DELETE /api/v1/products/delete-product
//
func (h *Handler) DeleteProduct(c *gin.Context) {
	var input struct {
		ProductID string `json:"productId"`
	}
	_ = c.ShouldBindJSON(&input)
	if input.ProductID == "" {
		utils.Error(c, http.StatusBadRequest, "Please provide productId to delete it!")
		return
	}

	p, ok := h.loadOwned(c, input.ProductID, "Product not found!", "You are not authorized to delete this product.")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.products.Delete(ctx, p); err != nil {
		h.log.Error("❌ Suppression produit", zap.String("productId", p.ID), zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Error while deleting a product")
		return
	}

	if err := h.posted.RemovePostedProduct(ctx, p.PostedBy, p.ID); err != nil {
		h.log.Warn("⚠️ Retrait de productsPosted échoué", zap.String("userId", p.PostedBy), zap.Error(err))
	}
	_ = h.userCache.Invalidate(ctx, p.PostedBy)
	h.sync(ctx, p, true)

	h.log.Info("🧹 Produit supprimé", zap.String("productId", p.ID))
	utils.Success(c, http.StatusOK, gin.H{"message": "Deleted"}, "Product deleted successfully")
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

//
// 📦 GET /api/v1/products/fetch-all-products?page=1&limit=10
//
func (h *Handler) FetchAllProducts(c *gin.Context) {
	page := positiveQuery(c, "page", 1)
	limit := positiveQuery(c, "limit", DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}

	result, err := h.index.List(c.Request.Context(), page, limit)
	if err != nil {
		h.log.Error("❌ Liste des produits", zap.Error(err))
		utils.Error(c, http.StatusInternalServerError, "Error while fetching products")
		return
	}

	message := "Products Fetched Successfully :)"
	if len(result.Products) == 0 {
		message = "No Products Available"
	}

	utils.Success(c, http.StatusOK, gin.H{
		"products":    result.Products,
		"totalPages":  int(math.Ceil(float64(result.Total) / float64(limit))),
		"currentPage": page,
	}, message)
}
