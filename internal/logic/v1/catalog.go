package v1

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/middleware"
)

const (
	maxListLimit = 100
	featuredSize = 8
)

// ProductInput is the product form or JSON payload. Price is a decimal string.
type ProductInput struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	Price       string `form:"price" json:"price"`
	Stock       int    `form:"stock" json:"stock"`
	ImageURL    string `form:"image_url" json:"image_url"`
}

// CatalogService implements product listing and admin-authored CRUD.
type CatalogService struct {
	products domain.ProductRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products domain.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// Featured returns the newest products for the storefront.
func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "catalog.featured", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	products, err := s.products.List(ctx, domain.ProductFilter{Newest: true, Limit: featuredSize})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

// List returns products whose name matches query, all products when empty.
func (s *CatalogService) List(ctx context.Context, query string) ([]domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "catalog.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("query", query),
	))
	defer span.End()

	products, err := s.products.List(ctx, domain.ProductFilter{Query: strings.TrimSpace(query), Limit: maxListLimit})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	span.SetAttributes(attribute.Int("products.count", len(products)))
	return products, nil
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "catalog.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("product.id", id),
	))
	defer span.End()

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get product %q: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("get product %q: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// Create validates in and stores a new product.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "catalog.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	p, err := in.product()
	if err != nil {
		return "", err
	}
	id, err := s.products.Create(ctx, p)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("create product: %w", err)
	}
	span.SetAttributes(attribute.String("product.id", id))
	return id, nil
}

// Update validates in and replaces the product's fields.
func (s *CatalogService) Update(ctx context.Context, id string, in ProductInput) error {
	ctx, span := middleware.StartSpan(ctx, "catalog.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("product.id", id),
	))
	defer span.End()

	p, err := in.product()
	if err != nil {
		return err
	}
	p.ID = id
	if err := s.products.Update(ctx, p); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update product %q: %w", id, notFound(err, ErrProductNotFound))
	}
	return nil
}

// Delete removes the product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	ctx, span := middleware.StartSpan(ctx, "catalog.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("product.id", id),
	))
	defer span.End()

	if err := s.products.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete product %q: %w", id, notFound(err, ErrProductNotFound))
	}
	return nil
}

func (in ProductInput) product() (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 120 {
		return domain.Product{}, fmt.Errorf("name must be 1-120 characters: %w", ErrInvalidProduct)
	}
	cents, err := ParsePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}
	if in.Stock < 0 {
		return domain.Product{}, fmt.Errorf("stock must not be negative: %w", ErrInvalidProduct)
	}
	return domain.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  cents,
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}, nil
}

// ParsePrice converts a decimal amount such as "3.5" or "$12.99" into cents.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, fmt.Errorf("price is required: %w", ErrInvalidProduct)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals: %w", s, ErrInvalidProduct)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, ErrInvalidProduct)
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, ErrInvalidProduct)
	}
	cents := int64(w)*100 + int64(f)
	if cents == 0 {
		return 0, fmt.Errorf("price must be positive: %w", ErrInvalidProduct)
	}
	return cents, nil
}
