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

// ProductHandler serves the catalog under /products. Browsing is public,
// authoring requires the admin role.
type ProductHandler struct {
	catalog *logicv1.CatalogService
	guards  *Guards
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *logicv1.CatalogService, guards *Guards) *ProductHandler {
	return &ProductHandler{catalog: catalog, guards: guards}
}

// RegisterRoutes registers the product routes on the given router group.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := h.guards.RequireAdmin()

	rg.GET("", h.List)
	rg.GET("/new", admin, h.New)
	rg.POST("", admin, h.Create)
	rg.GET("/:id", h.Show)
	rg.GET("/:id/edit", admin, h.Edit)
	rg.PUT("/:id", admin, h.Update)
	rg.DELETE("/:id", admin, h.Delete)
}

// List renders the catalog, filtered by the q query parameter.
func (h *ProductHandler) List(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	query := c.Query("q")
	products, err := h.catalog.List(ctx, query)
	if err != nil {
		fail(c, span, err, "List products failed")
		return
	}

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{"products": products})
		return
	}
	view.Render(c, http.StatusOK, "products.html", gin.H{
		"title":    "Products",
		"products": products,
		"query":    query,
	})
}

// Show renders one product.
func (h *ProductHandler) Show(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("id")),
	))
	defer span.End()

	p, err := h.catalog.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, span, err, "Get product failed")
		return
	}

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, p)
		return
	}
	view.Render(c, http.StatusOK, "product.html", gin.H{"title": p.Name, "product": p})
}

// New renders an empty product form.
func (h *ProductHandler) New(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	view.Render(c, http.StatusOK, "product_form.html", gin.H{"title": "New product", "product": domain.Product{}})
}

// Edit renders the product form filled with the stored product.
func (h *ProductHandler) Edit(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("id")),
	))
	defer span.End()

	p, err := h.catalog.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, span, err, "Get product failed")
		return
	}
	view.Render(c, http.StatusOK, "product_form.html", gin.H{"title": "Edit " + p.Name, "product": p})
}

// Create stores a new product.
func (h *ProductHandler) Create(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var in logicv1.ProductInput
	if err := c.ShouldBind(&in); err != nil {
		h.renderForm(c, http.StatusBadRequest, "", in, "Invalid product form")
		return
	}

	id, err := h.catalog.Create(ctx, in)
	if err != nil {
		if errors.Is(err, logicv1.ErrInvalidProduct) {
			span.RecordError(err)
			h.renderForm(c, http.StatusBadRequest, "", in, err.Error())
			return
		}
		fail(c, span, err, "Create product failed")
		return
	}

	logger := pkgzerolog.FromContext(ctx)
	logger.Info().Str("product_id", id).Msg("Product created")
	if isJSON(c) {
		c.JSON(http.StatusCreated, gin.H{"id": id})
		return
	}
	session.FromGin(c).AddFlash("Product created.")
	c.Redirect(http.StatusSeeOther, "/products/"+id)
}

// Update replaces a product's fields.
func (h *ProductHandler) Update(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("id")),
	))
	defer span.End()

	id := c.Param("id")
	var in logicv1.ProductInput
	if err := c.ShouldBind(&in); err != nil {
		h.renderForm(c, http.StatusBadRequest, id, in, "Invalid product form")
		return
	}

	if err := h.catalog.Update(ctx, id, in); err != nil {
		if errors.Is(err, logicv1.ErrInvalidProduct) {
			span.RecordError(err)
			h.renderForm(c, http.StatusBadRequest, id, in, err.Error())
			return
		}
		fail(c, span, err, "Update product failed")
		return
	}

	logger := pkgzerolog.FromContext(ctx)
	logger.Info().Str("product_id", id).Msg("Product updated")
	if isJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	session.FromGin(c).AddFlash("Product saved.")
	c.Redirect(http.StatusSeeOther, "/products/"+id)
}

// Delete removes a product.
func (h *ProductHandler) Delete(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("id")),
	))
	defer span.End()

	id := c.Param("id")
	if err := h.catalog.Delete(ctx, id); err != nil {
		fail(c, span, err, "Delete product failed")
		return
	}

	logger := pkgzerolog.FromContext(ctx)
	logger.Info().Str("product_id", id).Msg("Product deleted")
	if isJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	session.FromGin(c).AddFlash("Product deleted.")
	c.Redirect(http.StatusSeeOther, "/products")
}

func (h *ProductHandler) renderForm(c *gin.Context, code int, id string, in logicv1.ProductInput, msg string) {
	if isJSON(c) {
		c.JSON(code, gin.H{"error": msg})
		return
	}
	cents, _ := logicv1.ParsePrice(in.Price)
	view.Render(c, code, "product_form.html", gin.H{
		"title": "Product",
		"error": msg,
		"product": domain.Product{
			ID:          id,
			Name:        in.Name,
			Description: in.Description,
			PriceCents:  cents,
			Stock:       in.Stock,
			ImageURL:    in.ImageURL,
		},
	})
}
