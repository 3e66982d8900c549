package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce_back_end/internal/models"

	"github.com/gocql/gocql"
)

const userColumns = `user_id, user_name, full_name, email, password, avatar, products_posted, created_at, updated_at`

type UserRepository struct {
	session *gocql.Session
}

func NewUserRepository(session *gocql.Session) *UserRepository {
	return &UserRepository{session: session}
}

func (r *UserRepository) claim(ctx context.Context, table, column, value string, id gocql.UUID) (bool, error) {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s, user_id) VALUES (?, ?) IF NOT EXISTS`, table, column)
	applied, err := r.session.Query(stmt, value, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("réservation %s: %w", column, err)
	}
	return applied, nil
}

// Create réserve email et nom d'utilisateur puis insère l'utilisateur.
// Retourne ErrAlreadyExists si l'un des deux est déjà pris.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	id, err := gocql.ParseUUID(u.ID)
	if err != nil {
		return fmt.Errorf("id utilisateur invalide: %w", err)
	}

	ok, err := r.claim(ctx, "users_by_email", "email", u.Email, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}

	ok, err = r.claim(ctx, "users_by_username", "user_name", u.UserName, id)
	if err != nil || !ok {
		_ = r.session.Query(`DELETE FROM users_by_email WHERE email = ?`, u.Email).WithContext(ctx).Exec()
		if err != nil {
			return err
		}
		return ErrAlreadyExists
	}

	err = r.session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, u.UserName, u.FullName, u.Email, u.Password, u.Avatar, []gocql.UUID{}, u.CreatedAt, u.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insertion utilisateur: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := gocql.ParseUUID(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		u                    models.User
		uid                  gocql.UUID
		posted               []gocql.UUID
		createdAt, updatedAt time.Time
	)
	err = r.session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).
		WithContext(ctx).
		Scan(&uid, &u.UserName, &u.FullName, &u.Email, &u.Password, &u.Avatar, &posted, &createdAt, &updatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur: %w", err)
	}

	u.ID = uid.String()
	u.ProductsPosted = make([]string, 0, len(posted))
	for _, p := range posted {
		u.ProductsPosted = append(u.ProductsPosted, p.String())
	}
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return &u, nil
}

func (r *UserRepository) findBy(ctx context.Context, table, column, value string) (*models.User, error) {
	var id gocql.UUID
	stmt := fmt.Sprintf(`SELECT user_id FROM %s WHERE %s = ?`, table, column)
	err := r.session.Query(stmt, value).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture %s: %w", table, err)
	}
	return r.FindByID(ctx, id.String())
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "users_by_email", "email", email)
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.findBy(ctx, "users_by_username", "user_name", userName)
}

func (r *UserRepository) updatePosted(ctx context.Context, op, userID, productID string) error {
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		return ErrNotFound
	}
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return ErrNotFound
	}
	stmt := fmt.Sprintf(`UPDATE users SET products_posted = products_posted %s ?, updated_at = ? WHERE user_id = ?`, op)
	if err := r.session.Query(stmt, []gocql.UUID{pid}, time.Now(), uid).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mise à jour produits publiés: %w", err)
	}
	return nil
}

func (r *UserRepository) AddPostedProduct(ctx context.Context, userID, productID string) error {
	return r.updatePosted(ctx, "+", userID, productID)
}

func (r *UserRepository) RemovePostedProduct(ctx context.Context, userID, productID string) error {
	return r.updatePosted(ctx, "-", userID, productID)
}
