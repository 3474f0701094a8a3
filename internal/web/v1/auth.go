package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/groc-service/internal/core/domain"
	logicv1 "github.com/duynhne/groc-service/internal/logic/v1"
	"github.com/duynhne/groc-service/internal/session"
	"github.com/duynhne/groc-service/internal/web/view"
	"github.com/duynhne/groc-service/middleware"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// AuthHandler serves login, registration and logout under /auth.
// It is the only handler that creates or destroys sessions.
type AuthHandler struct {
	auth     *logicv1.AuthService
	sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *logicv1.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// RegisterRoutes registers the auth routes on the given router group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/login", h.LoginForm)
	rg.POST("/login", h.Login)
	rg.GET("/register", h.RegisterForm)
	rg.POST("/register", h.Register)
	rg.POST("/logout", h.Logout)
	rg.DELETE("/logout", h.Logout)
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	if view.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	view.Render(c, http.StatusOK, "login.html", gin.H{"title": "Log in", "next": c.Query("next")})
}

// Login verifies credentials and starts an authenticated session.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn().Err(err).Msg("Invalid request")
		h.renderLogin(c, http.StatusBadRequest, req.Username, "Username and password are required")
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	user, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
			// Don't reveal whether the user exists.
			logger.Warn().Err(err).Msg("Login failed")
			h.renderLogin(c, http.StatusUnauthorized, req.Username, "Invalid username or password")
		default:
			fail(c, span, err, "Login failed")
		}
		return
	}

	if !h.startSession(c, span, user, "Welcome back, "+user.Username+"!") {
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("Login successful")
	h.respondAuthenticated(c, http.StatusOK, user)
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	view.Render(c, http.StatusOK, "register.html", gin.H{"title": "Register"})
}

// Register creates an account and logs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn().Err(err).Msg("Invalid request")
		h.renderRegister(c, http.StatusBadRequest, req, "Username, email and password are required")
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		code, text := statusFor(err)
		if code >= http.StatusInternalServerError {
			fail(c, span, err, "Registration failed")
			return
		}
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", req.Username).Msg("Registration failed")
		h.renderRegister(c, code, req, text)
		return
	}

	if !h.startSession(c, span, user, "Welcome to Groc, "+user.Username+"!") {
		return
	}

	logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("Registration successful")
	h.respondAuthenticated(c, http.StatusCreated, user)
}

// Logout destroys the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)
	if err := h.sessions.Destroy(c); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Logout failed")
		view.Error(c, http.StatusServiceUnavailable, "")
		return
	}
	logger.Info().Msg("Logout successful")
	if isJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// startSession swaps the request's session for a fresh one holding user.
func (h *AuthHandler) startSession(c *gin.Context, span trace.Span, user *domain.User, flash string) bool {
	s, err := h.sessions.Regenerate(c)
	if err != nil {
		fail(c, span, err, "Session regenerate failed")
		return false
	}
	s.SetUser(logicv1.SessionUser(user))
	s.AddFlash(flash)
	return true
}

func (h *AuthHandler) respondAuthenticated(c *gin.Context, code int, user *domain.User) {
	if isJSON(c) {
		c.JSON(code, gin.H{"user": user})
		return
	}
	c.Redirect(http.StatusSeeOther, safeNext(c.PostForm("next")))
}

func (h *AuthHandler) renderLogin(c *gin.Context, code int, username, msg string) {
	if isJSON(c) {
		c.JSON(code, gin.H{"error": msg})
		return
	}
	view.Render(c, code, "login.html", gin.H{
		"title":    "Log in",
		"error":    msg,
		"username": username,
		"next":     c.PostForm("next"),
	})
}

func (h *AuthHandler) renderRegister(c *gin.Context, code int, req domain.RegisterRequest, msg string) {
	if isJSON(c) {
		c.JSON(code, gin.H{"error": msg})
		return
	}
	view.Render(c, code, "register.html", gin.H{
		"title":    "Register",
		"error":    msg,
		"username": req.Username,
		"email":    req.Email,
	})
}

// isJSON reports whether the request body was sent as JSON.
func isJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}
