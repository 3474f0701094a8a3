package v1

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/middleware"
)

const (
	recentProducts = 5
	userPageSize   = 200
)

// DashboardStats summarises the store for the admin dashboard.
type DashboardStats struct {
	Products       int64
	Users          int64
	RecentProducts []domain.Product
}

// AdminService implements privileged management operations.
type AdminService struct {
	users    domain.UserRepository
	products domain.ProductRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(users domain.UserRepository, products domain.ProductRepository) *AdminService {
	return &AdminService{users: users, products: products}
}

// Dashboard collects counts and the most recently added products.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, span := middleware.StartSpan(ctx, "admin.dashboard", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	products, err := s.products.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count products: %w", err)
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count users: %w", err)
	}
	recent, err := s.products.List(ctx, domain.ProductFilter{Newest: true, Limit: recentProducts})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list recent products: %w", err)
	}
	span.SetAttributes(
		attribute.Int64("products.count", products),
		attribute.Int64("users.count", users),
	)
	return &DashboardStats{Products: products, Users: users, RecentProducts: recent}, nil
}

// Users lists registered users, newest first.
func (s *AdminService) Users(ctx context.Context) ([]domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "admin.users", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	rows, err := s.users.List(ctx, userPageSize)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	span.SetAttributes(attribute.Int("users.count", len(rows)))
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *toUser(&rows[i]))
	}
	return users, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, actor *domain.CurrentUser, userID, role string) error {
	ctx, span := middleware.StartSpan(ctx, "admin.set_role", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
		attribute.String("role", role),
	))
	defer span.End()

	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return fmt.Errorf("role %q: %w", role, ErrInvalidRole)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("set role: %w", ErrUnauthorized)
	}
	if actor.ID == userID && role != domain.RoleAdmin {
		return fmt.Errorf("demote self: %w", ErrUnauthorized)
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		span.RecordError(err)
		return fmt.Errorf("set role of %q: %w", userID, notFound(err, ErrUserNotFound))
	}
	span.AddEvent("role.changed")
	return nil
}
