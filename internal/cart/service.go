// Package cart contient la logique du panier : fusion des lignes par produit,
// quantités et recalcul des totaux. Le stockage et le catalogue sont injectés.
package cart

import (
	"context"
	"math"
	"strings"
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxCartQuantity borne la somme des quantités d'un panier, et donc chaque ligne.
const MaxCartQuantity = math.MaxInt32

type AddItemCommand struct {
	ProductID string
	Quantity  int
}

// UpdateItemCommand : Quantity nil signifie absente de la requête.
type UpdateItemCommand struct {
	ProductID string
	Quantity  *int
}

type Service struct {
	store   Store
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, catalog Catalog, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		log:     log.With(zap.String("component", "cart_service")),
		now:     time.Now,
	}
}

func validProductID(productID string) bool {
	if strings.TrimSpace(productID) == "" {
		return false
	}
	_, err := uuid.Parse(productID)
	return err == nil
}

// AddItem ajoute un produit au panier, en créant le panier au premier ajout.
func (s *Service) AddItem(ctx context.Context, userID string, cmd AddItemCommand) (*models.Cart, error) {
	if !validProductID(cmd.ProductID) || cmd.Quantity <= 0 {
		return nil, ValidationError(MsgInvalidAddInput)
	}
	if cmd.Quantity > MaxCartQuantity {
		return nil, ValidationError(MsgQuantityTooLarge)
	}

	product, err := s.catalog.FindByID(ctx, cmd.ProductID)
	if err != nil {
		s.log.Error("❌ Lecture produit impossible", zap.String("product_id", cmd.ProductID), zap.Error(err))
		return nil, PersistenceError(MsgProductLoadFailed, err)
	}
	if product == nil {
		return nil, NotFoundError(MsgProductNotFound)
	}

	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		s.log.Error("❌ Lecture panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartLoadFailed, err)
	}

	if c == nil {
		c = newCart(userID, product, cmd.Quantity, s.now())
		if err := s.store.Create(ctx, c); err != nil {
			s.log.Error("❌ Création panier impossible", zap.String("user_id", userID), zap.Error(err))
			return nil, PersistenceError(MsgCartSaveFailed, err)
		}
		s.log.Info("✅ Panier créé", zap.String("user_id", userID), zap.String("product_id", product.ID), zap.Int("quantity", cmd.Quantity))
		return c, nil
	}

	if cmd.Quantity > MaxCartQuantity-c.TotalQuantity {
		return nil, ValidationError(MsgQuantityTooLarge)
	}

	mergeItem(c, product, cmd.Quantity)
	c.UpdatedAt = s.now()
	if err := s.store.Save(ctx, c); err != nil {
		s.log.Error("❌ Sauvegarde panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartSaveFailed, err)
	}

	s.log.Info("✅ Produit ajouté au panier", zap.String("user_id", userID), zap.String("product_id", product.ID), zap.Int("quantity", cmd.Quantity))
	return c, nil
}

// GetCart retourne nil, nil tant que l'utilisateur n'a pas de panier.
func (s *Service) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		s.log.Error("❌ Lecture panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartLoadFailed, err)
	}
	return c, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, userID string, cmd UpdateItemCommand) (*models.Cart, error) {
	if strings.TrimSpace(cmd.ProductID) == "" || cmd.Quantity == nil || *cmd.Quantity < 0 {
		return nil, ValidationError(MsgInvalidAddInput)
	}
	if *cmd.Quantity > MaxCartQuantity {
		return nil, ValidationError(MsgQuantityTooLarge)
	}

	c, i, err := s.loadItem(ctx, userID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if *cmd.Quantity > MaxCartQuantity-(c.TotalQuantity-c.Items[i].Quantity) {
		return nil, ValidationError(MsgQuantityTooLarge)
	}

	setItemQuantity(c, i, *cmd.Quantity)
	c.UpdatedAt = s.now()
	if err := s.store.Save(ctx, c); err != nil {
		s.log.Error("❌ Sauvegarde panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartSaveFailed, err)
	}

	s.log.Info("✅ Quantité mise à jour", zap.String("user_id", userID), zap.String("product_id", cmd.ProductID), zap.Int("quantity", *cmd.Quantity))
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ValidationError(MsgProductIDRequired)
	}

	c, i, err := s.loadItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	removeItem(c, i)
	c.UpdatedAt = s.now()
	if err := s.store.Save(ctx, c); err != nil {
		s.log.Error("❌ Sauvegarde panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartSaveFailed, err)
	}

	s.log.Info("✅ Produit retiré du panier", zap.String("user_id", userID), zap.String("product_id", productID))
	return c, nil
}

func (s *Service) ClearCart(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.store.Clear(ctx, userID)
	if err != nil {
		s.log.Error("❌ Vidage panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, PersistenceError(MsgCartSaveFailed, err)
	}
	if c == nil {
		return nil, NotFoundError(MsgCartNotFound)
	}

	s.log.Info("🧹 Panier vidé", zap.String("user_id", userID))
	return c, nil
}

// loadItem charge le panier et localise la ligne du produit.
func (s *Service) loadItem(ctx context.Context, userID, productID string) (*models.Cart, int, error) {
	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		s.log.Error("❌ Lecture panier impossible", zap.String("user_id", userID), zap.Error(err))
		return nil, -1, PersistenceError(MsgCartLoadFailed, err)
	}
	if c == nil {
		return nil, -1, NotFoundError(MsgCartNotFound)
	}

	i := c.FindItem(productID)
	if i < 0 {
		return nil, -1, NotFoundError(MsgItemNotInCart)
	}
	return c, i, nil
}
