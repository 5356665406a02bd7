// Package store provides the remote product collection and its implementations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "productos"

// Product is a stored catalog record. The ID is the record key assigned on Add.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// NewProduct holds the payload of a record about to be stored.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

// Collection is a named remote collection of product records.
// Implementations must be safe for concurrent use.
type Collection interface {
	// Add stores a new record and returns it with its assigned ID.
	Add(ctx context.Context, p NewProduct) (*Product, error)

	// FindAll returns every record of the collection ordered by creation time.
	// Returns an empty slice if the collection is empty.
	FindAll(ctx context.Context) ([]Product, error)

	// Delete removes the record with the given ID.
	// Deleting a missing record is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Name returns the collection name.
	Name() string
}
