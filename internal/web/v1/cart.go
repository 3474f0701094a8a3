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

// addToCartRequest is the add-to-cart form or JSON payload.
type addToCartRequest struct {
	ProductID string `form:"product_id" json:"product_id" binding:"required"`
	Quantity  *int   `form:"quantity" json:"quantity"`
}

// quantityRequest is the update-line form or JSON payload.
type quantityRequest struct {
	Quantity *int `form:"quantity" json:"quantity" binding:"required"`
}

// CartHandler serves the session-backed cart under /cart. Every route
// requires a logged-in user, so the session always exists here.
type CartHandler struct {
	carts  *logicv1.CartService
	guards *Guards
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *logicv1.CartService, guards *Guards) *CartHandler {
	return &CartHandler{carts: carts, guards: guards}
}

// RegisterRoutes registers the cart routes on the given router group.
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(h.guards.RequireUser())

	rg.GET("", h.Show)
	rg.POST("", h.Add)
	rg.DELETE("", h.Clear)
	rg.PUT("/:productID", h.SetQuantity)
	rg.DELETE("/:productID", h.Remove)
}

// Show renders the cart.
func (h *CartHandler) Show(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	cart := logicv1.View(session.FromGin(c).Cart())
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Lines)))
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, cart)
		return
	}
	view.Render(c, http.StatusOK, "cart.html", gin.H{"title": "Cart", "cart": cart})
}

// Add puts a product into the cart.
func (h *CartHandler) Add(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req addToCartRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		view.Error(c, http.StatusBadRequest, "A product is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	span.SetAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("quantity", qty),
	)

	s := session.FromGin(c)
	lines, err := h.carts.Add(ctx, s.Cart(), req.ProductID, qty)
	if err != nil {
		fail(c, span, err, "Add to cart failed")
		return
	}
	s.SetCart(lines)

	logger := pkgzerolog.FromContext(ctx)
	logger.Info().Str("product_id", req.ProductID).Int("quantity", qty).Msg("Added to cart")
	h.done(c, s, "Added to your cart.")
}

// SetQuantity changes the quantity of a line; zero removes it.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("productID")),
	))
	defer span.End()

	var req quantityRequest
	if err := c.ShouldBind(&req); err != nil {
		view.Error(c, http.StatusBadRequest, "A quantity is required")
		return
	}

	s := session.FromGin(c)
	lines, err := h.carts.SetQuantity(ctx, s.Cart(), c.Param("productID"), *req.Quantity)
	if err != nil {
		fail(c, span, err, "Update cart failed")
		return
	}
	s.SetCart(lines)
	h.done(c, s, "Cart updated.")
}

// Remove drops a line from the cart.
func (h *CartHandler) Remove(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
		attribute.String("product.id", c.Param("productID")),
	))
	defer span.End()

	s := session.FromGin(c)
	s.SetCart(logicv1.Remove(s.Cart(), c.Param("productID")))
	h.done(c, s, "Removed from your cart.")
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	s := session.FromGin(c)
	s.SetCart(nil)
	h.done(c, s, "Your cart is empty.")
}

func (h *CartHandler) done(c *gin.Context, s *session.Session, flash string) {
	if isJSON(c) || c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, logicv1.View(s.Cart()))
		return
	}
	s.AddFlash(flash)
	c.Redirect(http.StatusSeeOther, "/cart")
}
