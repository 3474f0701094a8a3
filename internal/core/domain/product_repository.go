package domain

import (
	"context"
	"time"
)

// Product is a catalog entry. Prices are kept in cents.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	// Query matches product names case-insensitively.
	Query string
	Limit int
	// Newest orders by creation time descending instead of by name.
	Newest bool
}

// ProductRepository defines the data-access contract for the catalog.
type ProductRepository interface {
	// List returns products matching the filter.
	List(ctx context.Context, f ProductFilter) ([]Product, error)

	// GetByID returns the product or (nil, nil) when absent or the id is malformed.
	GetByID(ctx context.Context, id string) (*Product, error)

	// Create inserts p and returns the generated id.
	Create(ctx context.Context, p Product) (string, error)

	// Update replaces the mutable fields of p. Returns ErrNotFound when absent.
	Update(ctx context.Context, p Product) error

	// Delete removes the product. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Count returns the number of products.
	Count(ctx context.Context) (int64, error)
}
