// Package server assembles the storefront: the application context (Deps),
// the gin engine with its global middleware and route groups, and the
// pre-routing pipeline in front of it.
package server

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duynhne/groc-service/config"
	database "github.com/duynhne/groc-service/internal/core"
	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/internal/core/repository"
	logicv1 "github.com/duynhne/groc-service/internal/logic/v1"
	"github.com/duynhne/groc-service/internal/session"
	"github.com/duynhne/groc-service/internal/web/view"
	v1 "github.com/duynhne/groc-service/internal/web/v1"
	"github.com/duynhne/groc-service/middleware"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// Deps is the application context handed to the router. Everything a request
// may need is reachable from here; there are no package-level singletons.
type Deps struct {
	Config *config.Config

	// Connector is nil when the service runs on the memory store.
	Connector *database.Connector

	Users    domain.UserRepository
	Products domain.ProductRepository
	Sessions domain.SessionRepository

	// Public overrides the static directory from Config.Static.Dir.
	Public fs.FS

	// HashCost overrides the bcrypt cost when non-zero.
	HashCost int
}

// NewDeps selects the repositories for the configured store driver.
func NewDeps(cfg *config.Config, connector *database.Connector) Deps {
	deps := Deps{Config: cfg, Connector: connector}
	if cfg.Mongo.Driver == config.StoreMemory || connector == nil {
		deps.Connector = nil
		deps.Users = repository.NewMemoryUserRepository()
		deps.Products = repository.NewMemoryProductRepository()
		deps.Sessions = repository.NewMemorySessionRepository(nil)
		return deps
	}
	deps.Users = repository.NewUserRepository(connector)
	deps.Products = repository.NewProductRepository(connector)
	deps.Sessions = repository.NewSessionRepository(connector)
	return deps
}

// Server is the complete HTTP handler of the storefront.
type Server struct {
	deps     Deps
	engine   *gin.Engine
	pipeline *middleware.Pipeline
	draining atomic.Bool
}

// New builds the router. It fails only when the view templates cannot be parsed.
func New(deps Deps) (*Server, error) {
	cfg := deps.Config
	tmpl, err := view.Load()
	if err != nil {
		return nil, err
	}

	s := &Server{deps: deps}

	sessions := session.NewManager(deps.Sessions, session.Options{
		CookieName:   cfg.Session.CookieName,
		Secret:       cfg.Session.Secret,
		CookieMaxAge: cfg.Session.CookieMaxAge,
		TTL:          cfg.Session.TTL,
		Secure:       cfg.Session.CookieSecure,
	})
	sessions.OnStoreError(func(c *gin.Context, err error) {
		view.Error(c, http.StatusServiceUnavailable, "The store is temporarily unavailable. Please try again shortly.")
	})
	sessions.OnEvent(func(event string) {
		middleware.SessionEvents.WithLabelValues(event).Inc()
	})

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger := pkgzerolog.FromContext(c.Request.Context())
		logger.Error().Interface("panic", recovered).Msg("Recovered from panic")
		view.Error(c, http.StatusInternalServerError, "")
	}))
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware(cfg.Service.Name))
	}
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(sessions.Middleware())
	r.Use(view.Locals())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", s.ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := logicv1.NewAuthService(deps.Users, cfg.IsAdminEmail)
	if deps.HashCost != 0 {
		auth.SetHashCost(deps.HashCost)
	}
	catalog := logicv1.NewCatalogService(deps.Products)
	guards := v1.NewGuards(auth)

	v1.NewStorefrontHandler(catalog).RegisterRoutes(r.Group("/"))
	v1.NewProductHandler(catalog, guards).RegisterRoutes(r.Group("/products"))
	v1.NewCartHandler(logicv1.NewCartService(deps.Products), guards).RegisterRoutes(r.Group("/cart"))
	v1.NewAdminHandler(logicv1.NewAdminService(deps.Users, deps.Products), guards).RegisterRoutes(r.Group("/admin"))
	v1.NewAuthHandler(auth, sessions).RegisterRoutes(r.Group("/auth"))

	r.NoRoute(func(c *gin.Context) {
		view.Error(c, http.StatusNotFound, "Page not found")
	})

	public := deps.Public
	if public == nil {
		public = os.DirFS(cfg.Static.Dir)
	}

	s.engine = r
	s.pipeline = middleware.NewPipeline(r,
		middleware.NamedStage{Name: "body", Stage: middleware.BodyParser(middleware.DefaultBodyLimit)},
		middleware.NamedStage{Name: "method-override", Stage: middleware.MethodOverride()},
		middleware.NamedStage{Name: "static", Stage: middleware.Static(public)},
	)
	return s, nil
}

// ServeHTTP runs the pre-routing pipeline and then the gin engine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.pipeline.ServeHTTP(w, r)
}

// Stages lists the pre-routing stages in execution order.
func (s *Server) Stages() []string {
	return s.pipeline.Stages()
}

// Drain makes /ready fail so load balancers stop routing new traffic.
func (s *Server) Drain() {
	s.draining.Store(true)
}

func (s *Server) ready(c *gin.Context) {
	db := s.databaseState()
	if s.draining.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down", "database": db})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": db})
}

func (s *Server) databaseState() string {
	if s.deps.Connector == nil {
		return config.StoreMemory
	}
	state, err := s.deps.Connector.State()
	if err != nil {
		return fmt.Sprintf("%s: %v", state, err)
	}
	return state.String()
}
