package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"
)

const productColumns = `product_id, name, title, description, quantity, price, categories, images, posted_by, ratings, likes, carts, created_at, updated_at`

type ProductRepository struct {
	session *gocql.Session
}

func NewProductRepository(session *gocql.Session) *ProductRepository {
	return &ProductRepository{session: session}
}

// claimName réserve un nom de produit. Retourne ErrAlreadyExists si un autre produit le porte.
func (r *ProductRepository) claimName(ctx context.Context, name string, id gocql.UUID) error {
	applied, err := r.session.Query(`INSERT INTO products_by_name (name, product_id) VALUES (?, ?) IF NOT EXISTS`, name, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("réservation nom produit: %w", err)
	}
	if !applied {
		return ErrAlreadyExists
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	id, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %w", err)
	}
	postedBy, err := gocql.ParseUUID(p.PostedBy)
	if err != nil {
		return fmt.Errorf("id vendeur invalide: %w", err)
	}

	if err := r.claimName(ctx, p.Name, id); err != nil {
		return err
	}

	err = r.session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Title, p.Description, p.Quantity, toCQLDecimal(p.Price), p.Categories, p.Images,
		postedBy, p.Ratings, p.Likes, p.Carts, p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		// libère le nom pour ne pas bloquer une nouvelle tentative
		_ = r.releaseName(ctx, p.Name)
		return fmt.Errorf("insertion produit: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	id, err := gocql.ParseUUID(productID)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		p                    models.Product
		pid, postedBy        gocql.UUID
		price                inf.Dec
		createdAt, updatedAt time.Time
	)
	err = r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).
		WithContext(ctx).
		Scan(&pid, &p.Name, &p.Title, &p.Description, &p.Quantity, &price, &p.Categories, &p.Images,
			&postedBy, &p.Ratings, &p.Likes, &p.Carts, &createdAt, &updatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit: %w", err)
	}

	p.ID = pid.String()
	p.PostedBy = postedBy.String()
	p.Price = fromCQLDecimal(&price)
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

// nameChange déplace la réservation d'un nom de produit autour de l'écriture.
// Si l'écriture échoue, le nouveau nom est rendu et l'ancien reste réservé.
type nameChange struct {
	previous, next string
	claim          func(name string) error
	release        func(name string) error
}

func (n nameChange) apply(write func() error) error {
	if n.previous == n.next {
		return write()
	}
	if err := n.claim(n.next); err != nil {
		return err
	}
	if err := write(); err != nil {
		_ = n.release(n.next)
		return err
	}
	if err := n.release(n.previous); err != nil {
		return fmt.Errorf("libération ancien nom: %w", err)
	}
	return nil
}

func (r *ProductRepository) releaseName(ctx context.Context, name string) error {
	return r.session.Query(`DELETE FROM products_by_name WHERE name = ?`, name).WithContext(ctx).Exec()
}

// Update réécrit le produit. previousName sert à déplacer la réservation du nom s'il a changé.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, previousName string) error {
	id, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return ErrNotFound
	}

	names := nameChange{
		previous: previousName,
		next:     p.Name,
		claim:    func(name string) error { return r.claimName(ctx, name, id) },
		release:  func(name string) error { return r.releaseName(ctx, name) },
	}
	return names.apply(func() error {
		err := r.session.Query(`UPDATE products SET name = ?, title = ?, description = ?, quantity = ?, price = ?, categories = ?, updated_at = ? WHERE product_id = ?`,
			p.Name, p.Title, p.Description, p.Quantity, toCQLDecimal(p.Price), p.Categories, p.UpdatedAt, id).
			WithContext(ctx).Exec()
		if err != nil {
			return fmt.Errorf("mise à jour produit: %w", err)
		}
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, p *models.Product) error {
	id, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return ErrNotFound
	}

	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM products WHERE product_id = ?`, id)
	batch.Query(`DELETE FROM products_by_name WHERE name = ?`, p.Name)
	if err := r.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("suppression produit: %w", err)
	}
	return nil
}
