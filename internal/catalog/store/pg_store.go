package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertProductSQL = `INSERT INTO products (collection, name, description, price)
VALUES ($1, $2, $3, $4)
RETURNING id, name, description, price, created_at`

	selectProductsSQL = `SELECT id, name, description, price, created_at
FROM products
WHERE collection = $1
ORDER BY created_at, id`

	deleteProductSQL = `DELETE FROM products WHERE collection = $1 AND id = $2`
)

// PgStore implements Collection using PostgreSQL as the data store.
// Every query is scoped by the collection name.
type PgStore struct {
	db   *pgxpool.Pool
	name string
}

// NewPgStore creates a new Collection backed by a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool, collection string) *PgStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &PgStore{
		db:   dbp,
		name: collection,
	}
}

func (p *PgStore) Name() string {
	return p.name
}

// Add inserts a new record and returns it with the generated ID.
func (p *PgStore) Add(ctx context.Context, np NewProduct) (*Product, error) {
	row := p.db.QueryRow(ctx, insertProductSQL, p.name, np.Name, np.Description, np.Price)
	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return &product, nil
}

// FindAll retrieves every record of the collection.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, selectProductsSQL, p.name)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// Delete removes a record by its ID. A missing record is not an error.
func (p *PgStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.db.Exec(ctx, deleteProductSQL, p.name, id); err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.CreatedAt)
	return product, err
}
