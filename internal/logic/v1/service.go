package v1

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/middleware"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// AuthService implements registration and login rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database directly. Session handling stays in the web layer.
type AuthService struct {
	users   domain.UserRepository
	isAdmin func(email string) bool
	cost    int
}

// NewAuthService creates a new AuthService. isAdmin decides whether a newly
// registered email receives the admin role; nil means never.
func NewAuthService(users domain.UserRepository, isAdmin func(email string) bool) *AuthService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{users: users, isAdmin: isAdmin, cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *AuthService) SetHashCost(cost int) { s.cost = cost }

// Login verifies credentials and returns the user.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	row, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	// Best-effort, don't fail login.
	if updateErr := s.users.UpdateLastLogin(ctx, row.ID); updateErr != nil {
		span.RecordError(fmt.Errorf("update last_login: %w", updateErr))
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return toUser(row), nil
}

// Register validates the payload, hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegistration(req); err != nil {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUserExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleCustomer
	if s.isAdmin(req.Email) {
		role = domain.RoleAdmin
	}

	id, err := s.users.Create(ctx, req.Username, req.Email, string(passwordHash), role)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUserExists)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", id),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")

	return &domain.User{ID: id, Username: req.Username, Email: req.Email, Role: role}, nil
}

func validateRegistration(req domain.RegisterRequest) error {
	if !usernamePattern.MatchString(req.Username) {
		return fmt.Errorf("username must be 3-32 letters, digits, '.', '_' or '-': %w", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return fmt.Errorf("email %q is not valid: %w", req.Email, ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, ErrInvalidInput)
	}
	return nil
}

// Refresh reloads the user behind a session reference.
// It returns nil when the user no longer exists.
func (s *AuthService) Refresh(ctx context.Context, ref *domain.CurrentUser) (*domain.CurrentUser, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.refresh", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", ref.ID),
	))
	defer span.End()

	row, err := s.users.GetByID(ctx, ref.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", ref.ID, err)
	}
	if row == nil {
		span.AddEvent("user.missing")
		return nil, nil
	}
	if row.Role != ref.Role {
		span.AddEvent("user.role_changed")
	}
	return SessionUser(toUser(row)), nil
}

// SessionUser builds the current-user reference stored in the session.
func SessionUser(u *domain.User) *domain.CurrentUser {
	return &domain.CurrentUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func toUser(row *domain.UserRow) *domain.User {
	return &domain.User{
		ID:        row.ID,
		Username:  row.Username,
		Email:     row.Email,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
	}
}
