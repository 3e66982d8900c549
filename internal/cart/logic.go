package cart

import (
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func lineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

func newItem(p *models.Product, quantity int) models.CartItem {
	return models.CartItem{
		ProductID:    p.ID,
		ProductPrice: p.Price,
		Quantity:     quantity,
		Price:        lineTotal(p.Price, quantity),
		Image:        p.FirstImage(),
	}
}

func newCart(userID string, p *models.Product, quantity int, now time.Time) *models.Cart {
	c := &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []models.CartItem{newItem(p, quantity)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	recomputeTotals(c)
	return c
}

// mergeItem ajoute la quantité à la ligne existante (prix recalculé sur le prix courant du produit)
// ou ajoute une nouvelle ligne.
func mergeItem(c *models.Cart, p *models.Product, quantity int) {
	if i := c.FindItem(p.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].Price = lineTotal(p.Price, c.Items[i].Quantity)
	} else {
		c.Items = append(c.Items, newItem(p, quantity))
	}
	recomputeTotals(c)
}

// setItemQuantity utilise le prix unitaire enregistré dans la ligne. 0 supprime la ligne.
func setItemQuantity(c *models.Cart, i, quantity int) {
	if quantity == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
		c.Items[i].Price = lineTotal(c.Items[i].ProductPrice, quantity)
	}
	recomputeTotals(c)
}

// removeItem retire la ligne et décrémente les totaux de cette seule ligne.
func removeItem(c *models.Cart, i int) models.CartItem {
	removed := c.Items[i]
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.TotalQuantity -= removed.Quantity
	c.TotalPrice = c.TotalPrice.Sub(removed.Price)
	return removed
}

func recomputeTotals(c *models.Cart) {
	quantity := 0
	price := decimal.Zero
	for _, it := range c.Items {
		quantity += it.Quantity
		price = price.Add(it.Price)
	}
	c.TotalQuantity = quantity
	c.TotalPrice = price
}
