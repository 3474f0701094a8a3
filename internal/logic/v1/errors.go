// Package v1 provides the storefront business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for the failures handlers map onto
// HTTP responses. They are wrapped with context using fmt.Errorf("%w") when
// returned from service methods. Store outages surface as domain.ErrUnavailable.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrProductNotFound):
//	    view.Error(c, http.StatusNotFound, "Product not found")
//	case errors.Is(err, domain.ErrUnavailable):
//	    view.Error(c, http.StatusServiceUnavailable, "")
//	default:
//	    view.Error(c, http.StatusInternalServerError, "")
//	}
package v1

import "errors"

// Sentinel errors for storefront operations.
var (
	// ErrInvalidCredentials indicates the provided credentials are incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 Unauthorized on login (don't reveal user existence), 404 elsewhere
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates the username or email already exists in the system.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidInput indicates a registration payload failed validation.
	// HTTP Status: 400 Bad Request
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the user is not authorized to perform the operation.
	// HTTP Status: 403 Forbidden
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrInvalidRole indicates an unknown role name.
	// HTTP Status: 400 Bad Request
	ErrInvalidRole = errors.New("invalid role")

	// ErrProductNotFound indicates the product does not exist.
	// HTTP Status: 404 Not Found
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidProduct indicates a product payload failed validation.
	// HTTP Status: 400 Bad Request
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidQuantity indicates a cart quantity outside the allowed range.
	// HTTP Status: 400 Bad Request
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientStock indicates the requested quantity exceeds stock.
	// HTTP Status: 409 Conflict
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotInCart indicates the product is not in the cart.
	// HTTP Status: 404 Not Found
	ErrNotInCart = errors.New("product not in cart")
)
