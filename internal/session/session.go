// Package session implements cookie-identified, server-side sessions stored
// through a domain.SessionRepository, and the gin middleware that attaches
// them to requests.
package session

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/duynhne/groc-service/internal/core/domain"
)

type ctxKey struct{}

// ContextKey is the gin.Context key holding the *Session of the request.
const ContextKey = "session"

// Session is the request-scoped view of a session record.
// It is owned by a single request and must not be shared across goroutines.
type Session struct {
	raw       *sessions.Session
	data      domain.SessionData
	modified  bool
	destroyed bool
}

func newSession(raw *sessions.Session) *Session {
	data, _ := raw.Values[dataKey].(domain.SessionData)
	return &Session{raw: raw, data: data}
}

// ID returns the session identifier. It is empty until the session is first saved.
func (s *Session) ID() string { return s.raw.ID }

// IsNew reports whether the session has not been persisted yet.
func (s *Session) IsNew() bool { return s.raw.IsNew }

// Modified reports whether the payload changed during this request.
func (s *Session) Modified() bool { return s.modified }

// User returns the authenticated-user reference, or nil when anonymous.
func (s *Session) User() *domain.CurrentUser {
	if s == nil || s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// SetUser stores the authenticated-user reference. nil clears it.
func (s *Session) SetUser(u *domain.CurrentUser) {
	if u != nil {
		c := *u
		u = &c
	}
	s.data.User = u
	s.modified = true
}

// Cart returns a copy of the cart lines.
func (s *Session) Cart() []domain.CartLine {
	return append([]domain.CartLine(nil), s.data.Cart...)
}

// SetCart replaces the cart lines.
func (s *Session) SetCart(lines []domain.CartLine) {
	s.data.Cart = append([]domain.CartLine(nil), lines...)
	s.modified = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.data.Flash = append(s.data.Flash, msg)
	s.modified = true
}

// Flashes returns and clears queued messages.
func (s *Session) Flashes() []string {
	if s == nil || len(s.data.Flash) == 0 {
		return nil
	}
	out := s.data.Flash
	s.data.Flash = nil
	s.modified = true
	return out
}

// Get returns a free-form value.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.data.Values[key]
	return v, ok
}

// Set stores a free-form value.
func (s *Session) Set(key, value string) {
	if s.data.Values == nil {
		s.data.Values = make(map[string]string)
	}
	s.data.Values[key] = value
	s.modified = true
}

// Delete removes a free-form value.
func (s *Session) Delete(key string) {
	if _, ok := s.data.Values[key]; !ok {
		return
	}
	delete(s.data.Values, key)
	s.modified = true
}

// FromContext returns the session attached to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// FromGin returns the session attached to the gin context, or nil.
func FromGin(c *gin.Context) *Session {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}

func withSession(c *gin.Context, s *Session) {
	c.Set(ContextKey, s)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, s))
}
