// Package view renders HTML pages and carries per-request view locals.
package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/groc-service/internal/core/domain"
	"github.com/duynhne/groc-service/internal/session"
	"github.com/duynhne/groc-service/web"
)

// LocalsKey is the gin.Context key holding the view locals.
const LocalsKey = "view_locals"

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"money":   Money,
	"decimal": Decimal,
}

// Load parses the embedded page templates.
func Load() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(web.Views, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}
	return t, nil
}

// Money formats cents as a dollar amount.
func Money(cents int64) string {
	return "$" + Decimal(cents)
}

// Decimal formats cents as a plain decimal number, e.g. 1250 -> "12.50".
func Decimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Locals copies the current-user reference of the request's session into the
// view locals. It must run after session attachment.
func Locals() gin.HandlerFunc {
	return func(c *gin.Context) {
		locals := gin.H{"currentUser": nil}
		if u := session.FromGin(c).User(); u != nil {
			locals["currentUser"] = u
		}
		c.Set(LocalsKey, locals)
		c.Next()
	}
}

// CurrentUser returns the current-user reference seen by templates, or nil.
func CurrentUser(c *gin.Context) *domain.CurrentUser {
	locals, ok := c.Get(LocalsKey)
	if !ok {
		return nil
	}
	u, _ := locals.(gin.H)["currentUser"].(*domain.CurrentUser)
	return u
}

// SetCurrentUser replaces the current-user reference in the view locals.
func SetCurrentUser(c *gin.Context, u *domain.CurrentUser) {
	locals, ok := c.Get(LocalsKey)
	if !ok {
		return
	}
	if u == nil {
		locals.(gin.H)["currentUser"] = nil
		return
	}
	locals.(gin.H)["currentUser"] = u
}

// Render merges the view locals into data and renders the named template.
// Handler data wins over locals on key collisions. Pending flash messages
// are consumed here, so only a rendered page clears them.
func Render(c *gin.Context, code int, name string, data gin.H) {
	merged := gin.H{}
	if locals, ok := c.Get(LocalsKey); ok {
		for k, v := range locals.(gin.H) {
			merged[k] = v
		}
	}
	for k, v := range data {
		merged[k] = v
	}
	if _, ok := merged["flash"]; !ok {
		merged["flash"] = session.FromGin(c).Flashes()
	}
	c.HTML(code, name, merged)
}

// Error renders the error page with the given status.
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = http.StatusText(code)
	}
	if wantsJSON(c) {
		c.AbortWithStatusJSON(code, gin.H{"error": message})
		return
	}
	Render(c, code, "error.html", gin.H{
		"title":      http.StatusText(code),
		"status":     code,
		"statusText": http.StatusText(code),
		"message":    message,
	})
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
