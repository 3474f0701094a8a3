package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/middleware"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 99

// CartView is a cart with derived totals, ready for rendering.
type CartView struct {
	Lines      []domain.CartLine
	Items      int
	TotalCents int64
}

// CartService implements cart mutations. Carts live in the session payload,
// so every method takes the current lines and returns the new ones.
type CartService struct {
	products domain.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(products domain.ProductRepository) *CartService {
	return &CartService{products: products}
}

// Add puts qty units of the product into the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, lines []domain.CartLine, productID string, qty int) ([]domain.CartLine, error) {
	ctx, span := middleware.StartSpan(ctx, "cart.add", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("product.id", productID),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	if qty < 1 || qty > MaxLineQuantity {
		return nil, fmt.Errorf("add %d units: %w", qty, ErrInvalidQuantity)
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := append([]domain.CartLine(nil), lines...)
	for i := range out {
		if out[i].ProductID != p.ID {
			continue
		}
		total := out[i].Quantity + qty
		if err := checkQuantity(p, total); err != nil {
			return nil, err
		}
		out[i].Quantity = total
		out[i].Name, out[i].PriceCents = p.Name, p.PriceCents
		return out, nil
	}

	if err := checkQuantity(p, qty); err != nil {
		return nil, err
	}
	return append(out, domain.CartLine{ProductID: p.ID, Name: p.Name, PriceCents: p.PriceCents, Quantity: qty}), nil
}

// SetQuantity changes a line's quantity. Zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, lines []domain.CartLine, productID string, qty int) ([]domain.CartLine, error) {
	ctx, span := middleware.StartSpan(ctx, "cart.set_quantity", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("product.id", productID),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	if qty < 0 || qty > MaxLineQuantity {
		return nil, fmt.Errorf("set %d units: %w", qty, ErrInvalidQuantity)
	}
	idx := indexOf(lines, productID)
	if idx < 0 {
		return nil, fmt.Errorf("product %q: %w", productID, ErrNotInCart)
	}
	if qty == 0 {
		return Remove(lines, productID), nil
	}

	p, err := s.product(ctx, productID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := checkQuantity(p, qty); err != nil {
		return nil, err
	}

	out := append([]domain.CartLine(nil), lines...)
	out[idx].Quantity = qty
	out[idx].Name, out[idx].PriceCents = p.Name, p.PriceCents
	return out, nil
}

// Remove drops the product's line. Removing a missing product is a no-op.
func Remove(lines []domain.CartLine, productID string) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

// View computes the totals of lines.
func View(lines []domain.CartLine) CartView {
	v := CartView{Lines: lines}
	for _, l := range lines {
		v.Items += l.Quantity
		v.TotalCents += l.SubtotalCents()
	}
	return v
}

func (s *CartService) product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %q: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("get product %q: %w", id, ErrProductNotFound)
	}
	return p, nil
}

func checkQuantity(p *domain.Product, qty int) error {
	if qty > MaxLineQuantity {
		return fmt.Errorf("%d units of %q: %w", qty, p.Name, ErrInvalidQuantity)
	}
	if qty > p.Stock {
		return fmt.Errorf("%d units of %q, %d in stock: %w", qty, p.Name, p.Stock, ErrInsufficientStock)
	}
	return nil
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// notFound replaces domain.ErrNotFound with the caller's sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return sentinel
	}
	return err
}
