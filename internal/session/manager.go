package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/duynhne/groc-service/internal/core/domain"
	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
)

// Event names reported to observers.
const (
	EventCreated   = "created"
	EventDestroyed = "destroyed"
	EventLoaded    = "loaded"
	EventStoreErr  = "store_error"
)

// ErrNoSession is returned by operations that need a session attached to the request.
var ErrNoSession = errors.New("no session attached to request")

// Options configures the session cookie and record lifetime.
// CookieMaxAge and TTL are independent. Secret may list several comma
// separated keys; the first one signs new cookies.
type Options struct {
	CookieName   string
	Secret       string
	CookieMaxAge time.Duration
	TTL          time.Duration
	Secure       bool
}

// Manager attaches sessions from a Store to gin requests and commits them
// before the response is written.
type Manager struct {
	store   *Store
	name    string
	onError func(c *gin.Context, err error)
	observe func(event string)
}

// NewManager creates a Manager persisting through repo.
func NewManager(repo domain.SessionRepository, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "groc.sid"
	}
	store := NewStore(repo, opts.TTL, SplitKeys(opts.Secret)...)
	store.Options.MaxAge = int(opts.CookieMaxAge / time.Second)
	store.Options.Secure = opts.Secure
	return &Manager{
		store: store,
		name:  opts.CookieName,
		onError: func(c *gin.Context, err error) {
			c.AbortWithStatus(http.StatusServiceUnavailable)
		},
		observe: func(string) {},
	}
}

// Store returns the underlying sessions.Store.
func (m *Manager) Store() *Store { return m.store }

// OnStoreError replaces the response written when the session lookup fails.
// The handler must abort the context.
func (m *Manager) OnStoreError(fn func(c *gin.Context, err error)) { m.onError = fn }

// OnEvent registers an observer for session lifecycle events.
func (m *Manager) OnEvent(fn func(event string)) { m.observe = fn }

// SetClock replaces the time source used for record expiration.
func (m *Manager) SetClock(now func() time.Time) { m.store.now = now }

// Middleware resolves the session for the request cookie and attaches it.
// A request without a valid cookie gets a fresh, unsaved session that is
// persisted only if the payload is modified.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.load(c)
		if err != nil {
			m.observe(EventStoreErr)
			logger := pkgzerolog.FromContext(c.Request.Context())
			logger.Error().Err(err).Msg("Session lookup failed")
			m.onError(c, err)
			return
		}
		withSession(c, s)

		w := &committingWriter{ResponseWriter: c.Writer}
		w.commit = func() { m.commit(c.Request, w.ResponseWriter, s) }
		c.Writer = w

		c.Next()

		w.flush()
	}
}

func (m *Manager) load(c *gin.Context) (*Session, error) {
	raw, err := m.store.Get(c.Request, m.name)
	if err != nil {
		return nil, err
	}
	if !raw.IsNew {
		m.observe(EventLoaded)
	}
	return newSession(raw), nil
}

// commit runs once, right before the response headers are sent.
func (m *Manager) commit(r *http.Request, w http.ResponseWriter, s *Session) {
	logger := pkgzerolog.FromContext(r.Context())

	switch {
	case s.destroyed:
		s.raw.Options.MaxAge = -1
		if err := m.store.Save(r, w, s.raw); err != nil {
			logger.Error().Err(err).Msg("Session cookie clear failed")
		}
	case s.modified:
		created := s.raw.IsNew
		s.raw.Values[dataKey] = s.data
		if err := m.store.Save(r, w, s.raw); err != nil {
			m.observe(EventStoreErr)
			logger.Error().Err(err).Msg("Session save failed")
			return
		}
		s.raw.IsNew = false
		if created {
			m.observe(EventCreated)
		}
	case !s.raw.IsNew:
		if err := m.store.Touch(r, s.raw); err != nil {
			m.observe(EventStoreErr)
			logger.Warn().Err(err).Msg("Session touch failed")
		}
	}
}

// Regenerate replaces the request's session with a fresh, empty one under a
// new identifier and deletes the previous record.
func (m *Manager) Regenerate(c *gin.Context) (*Session, error) {
	s := FromGin(c)
	if s == nil {
		return nil, ErrNoSession
	}
	if !s.raw.IsNew {
		if err := m.store.Delete(c.Request, s.raw); err != nil {
			return nil, fmt.Errorf("delete previous session: %w", err)
		}
	}

	raw := sessions.NewSession(m.store, m.name)
	opts := *m.store.Options
	raw.Options = &opts
	raw.IsNew = true
	*s = Session{raw: raw, modified: true}
	return s, nil
}

// Destroy deletes the session record and clears the cookie.
func (m *Manager) Destroy(c *gin.Context) error {
	s := FromGin(c)
	if s == nil {
		return ErrNoSession
	}
	if err := m.store.Delete(c.Request, s.raw); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.raw.ID = ""
	s.data = domain.SessionData{}
	s.destroyed = true
	s.modified = false
	m.observe(EventDestroyed)
	logger := pkgzerolog.FromContext(c.Request.Context())
	logger.Debug().Msg("Session destroyed")
	return nil
}

// committingWriter runs commit before the first byte of the response goes out,
// which is the last moment a Set-Cookie header can still be added.
type committingWriter struct {
	gin.ResponseWriter
	commit    func()
	committed bool
}

func (w *committingWriter) flush() {
	if w.committed {
		return
	}
	w.committed = true
	w.commit()
}

func (w *committingWriter) WriteHeaderNow() {
	w.flush()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) WriteString(s string) (int, error) {
	w.flush()
	return w.ResponseWriter.WriteString(s)
}

func (w *committingWriter) Flush() {
	w.flush()
	w.ResponseWriter.Flush()
}
