// Package v1 holds the HTTP handlers of the storefront, one type per route group.
// Dependencies are injected via constructors, no global state.
package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/groc-service/internal/core/domain"
	logicv1 "github.com/duynhne/groc-service/internal/logic/v1"
	"github.com/duynhne/groc-service/internal/web/view"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// statusFor maps a service error onto an HTTP status and a user-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "The store is temporarily unavailable. Please try again shortly."
	case errors.Is(err, logicv1.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, logicv1.ErrUserExists):
		return http.StatusConflict, "Username or email already exists"
	case errors.Is(err, logicv1.ErrInsufficientStock):
		return http.StatusConflict, "Not enough stock for that quantity"
	case errors.Is(err, logicv1.ErrUnauthorized):
		return http.StatusForbidden, "You are not allowed to do that"
	case errors.Is(err, logicv1.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, logicv1.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, logicv1.ErrNotInCart):
		return http.StatusNotFound, "That product is not in your cart"
	case errors.Is(err, logicv1.ErrInvalidInput),
		errors.Is(err, logicv1.ErrInvalidProduct),
		errors.Is(err, logicv1.ErrInvalidQuantity),
		errors.Is(err, logicv1.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// fail records err on the span, logs it and renders the mapped error page.
func fail(c *gin.Context, span trace.Span, err error, msg string) {
	code, text := statusFor(err)
	span.RecordError(err)

	logger := pkgzerolog.FromContext(c.Request.Context())
	if code >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(msg)
	} else {
		logger.Warn().Err(err).Msg(msg)
	}
	view.Error(c, code, text)
}
