package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	logicv1 "github.com/duynhne/groc-service/internal/logic/v1"
	"github.com/duynhne/groc-service/internal/session"
	"github.com/duynhne/groc-service/internal/web/view"
	"github.com/duynhne/groc-service/middleware"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// AdminHandler serves the admin area under /admin.
type AdminHandler struct {
	admin  *logicv1.AdminService
	guards *Guards
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *logicv1.AdminService, guards *Guards) *AdminHandler {
	return &AdminHandler{admin: admin, guards: guards}
}

// RegisterRoutes registers the admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(h.guards.RequireAdmin())

	rg.GET("", h.Dashboard)
	rg.GET("/users", h.Users)
	rg.PUT("/users/:id/role", h.SetRole)
}

// Dashboard renders store statistics.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	stats, err := h.admin.Dashboard(ctx)
	if err != nil {
		fail(c, span, err, "Load dashboard failed")
		return
	}
	view.Render(c, http.StatusOK, "admin.html", gin.H{"title": "Admin", "stats": stats})
}

// Users renders the user list.
func (h *AdminHandler) Users(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	users, err := h.admin.Users(ctx)
	if err != nil {
		fail(c, span, err, "List users failed")
		return
	}
	view.Render(c, http.StatusOK, "admin_users.html", gin.H{"title": "Users", "users": users})
}

// SetRole changes a user's role.
func (h *AdminHandler) SetRole(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("user.id", c.Param("id")),
	))
	defer span.End()

	role := c.PostForm("role")
	if err := h.admin.SetRole(ctx, view.CurrentUser(c), c.Param("id"), role); err != nil {
		fail(c, span, err, "Set role failed")
		return
	}

	logger := pkgzerolog.FromContext(ctx)
	logger.Info().Str("target_user_id", c.Param("id")).Str("role", role).Msg("Role changed")
	session.FromGin(c).AddFlash("Role updated.")
	c.Redirect(http.StatusSeeOther, "/admin/users")
}
