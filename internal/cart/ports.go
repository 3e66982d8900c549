package cart

import (
	"context"

	"ecommerce_back_end/internal/models"
)

// Catalog donne accès aux produits. FindByID retourne nil, nil si le produit n'existe pas.
type Catalog interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
}

// Store persiste un panier par utilisateur. Les lectures retournent nil, nil si le panier est absent.
type Store interface {
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Save(ctx context.Context, c *models.Cart) error
	// Clear vide items et totaux en une seule écriture atomique.
	Clear(ctx context.Context, userID string) (*models.Cart, error)
}
