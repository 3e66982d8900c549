package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Les montants sortent en nombres JSON, pas en chaînes
	decimal.MarshalJSONWithoutQuotes = true
}

// Cart est le panier d'un utilisateur (un seul par utilisateur, clé cart:<userId>).
type Cart struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Items         []CartItem      `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CartItem est une ligne du panier. ProductPrice est le prix unitaire au moment de l'ajout.
type CartItem struct {
	ProductID    string          `json:"productId"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
}

// FindItem retourne l'index de la ligne du produit, -1 si absente.
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
