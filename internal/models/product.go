package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Categories  []string        `json:"categories"`
	Images      []string        `json:"images"`
	PostedBy    string          `json:"postedBy"`
	Ratings     float64         `json:"ratings"`
	Likes       int             `json:"likes"`
	Carts       int             `json:"carts"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FirstImage sert d'aperçu dans le panier.
func (p *Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
