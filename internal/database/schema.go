package database

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
)

// Tables du keyspace. Les tables *_by_* garantissent l'unicité via IF NOT EXISTS.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text,
		title text,
		description text,
		quantity int,
		price decimal,
		categories list<text>,
		images list<text>,
		posted_by uuid,
		ratings double,
		likes int,
		carts int,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS products_by_name (
		name text PRIMARY KEY,
		product_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id uuid PRIMARY KEY,
		user_name text,
		full_name text,
		email text,
		password text,
		avatar text,
		products_posted set<uuid>,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email text PRIMARY KEY,
		user_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_username (
		user_name text PRIMARY KEY,
		user_id uuid
	)`,
}

// EnsureSchema crée les tables manquantes (idempotent).
func EnsureSchema(ctx context.Context, session *gocql.Session) error {
	for _, stmt := range schema {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("création table: %w", err)
		}
	}
	return nil
}
