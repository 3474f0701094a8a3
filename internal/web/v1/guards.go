package v1

import (
	"net/http"
	"net/url"
	"strings"

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

// LoginPath is where anonymous users are sent.
const LoginPath = "/auth/login"

// Guards gate route groups on the current user. The session only names the
// user; role and existence are read from the user store on every guarded
// request, so a demotion or deletion applies to sessions already issued.
type Guards struct {
	auth *logicv1.AuthService
}

// NewGuards creates Guards backed by auth.
func NewGuards(auth *logicv1.AuthService) *Guards {
	return &Guards{auth: auth}
}

// RequireUser lets only authenticated users through. Anonymous browsers are
// redirected to the login page; JSON clients get 401.
func (g *Guards) RequireUser() gin.HandlerFunc {
	return g.require(false)
}

// RequireAdmin lets only users currently holding the admin role through.
func (g *Guards) RequireAdmin() gin.HandlerFunc {
	return g.require(true)
}

func (g *Guards) require(admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := g.current(c)
		if !ok {
			return
		}
		switch {
		case u == nil:
			denyAnonymous(c)
		case admin && !u.IsAdmin():
			view.Error(c, http.StatusForbidden, "Administrators only")
		default:
			c.Next()
		}
	}
}

// current reloads the session user and writes any change back to the
// session and the view locals. ok is false when an error page was written.
func (g *Guards) current(c *gin.Context) (*domain.CurrentUser, bool) {
	ref := view.CurrentUser(c)
	if ref == nil {
		return nil, true
	}

	ctx, span := middleware.StartSpan(c.Request.Context(), "guard.current_user", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("user.id", ref.ID),
	))
	defer span.End()

	u, err := g.auth.Refresh(ctx, ref)
	if err != nil {
		fail(c, span, err, "Reload session user failed")
		return nil, false
	}
	if u != nil && *u == *ref {
		return u, true
	}

	logger := pkgzerolog.FromContext(ctx)
	if u == nil {
		logger.Info().Str("user_id", ref.ID).Msg("Session user no longer exists")
	} else {
		logger.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("Session user refreshed")
	}
	if s := session.FromGin(c); s != nil {
		s.SetUser(u)
	}
	view.SetCurrentUser(c, u)
	return u, true
}

func denyAnonymous(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	target := LoginPath
	if c.Request.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// safeNext returns next when it is a local absolute path, else "/".
// Browsers drop tab and newline characters and read a backslash as a slash,
// so any of those makes the target unsafe.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	if strings.ContainsFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return next
}
