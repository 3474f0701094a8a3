package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	logicv1 "github.com/duynhne/groc-service/internal/logic/v1"
	"github.com/duynhne/groc-service/internal/web/view"
	"github.com/duynhne/groc-service/middleware"
)

// StorefrontHandler serves the home page.
type StorefrontHandler struct {
	catalog *logicv1.CatalogService
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(catalog *logicv1.CatalogService) *StorefrontHandler {
	return &StorefrontHandler{catalog: catalog}
}

// RegisterRoutes registers the storefront routes on the given router group.
func (h *StorefrontHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Home)
}

// Home renders the featured products.
func (h *StorefrontHandler) Home(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	products, err := h.catalog.Featured(ctx)
	if err != nil {
		fail(c, span, err, "Load featured products failed")
		return
	}
	view.Render(c, http.StatusOK, "index.html", gin.H{"products": products})
}
