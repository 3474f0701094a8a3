package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/duynhne/groc-service/internal/core/domain"
)

const (
	idBytes = 24
	dataKey = "data"
)

var errNoKeys = errors.New("session: no signing key configured")

// Store is a sessions.Store that keeps the payload server-side in a
// domain.SessionRepository. The cookie carries only the session id, signed
// with securecookie. Several codecs may be configured to rotate keys: the
// first one signs, all of them verify.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	repo domain.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

var _ sessions.Store = (*Store)(nil)

// NewStore returns a Store over repo. Records expire ttl after their last save
// or touch. Each key yields one HMAC-only codec.
func NewStore(repo domain.SessionRepository, ttl time.Duration, keys ...[]byte) *Store {
	codecs := make([]securecookie.Codec, 0, len(keys))
	for _, key := range keys {
		codecs = append(codecs, securecookie.New(key, nil).MaxAge(int(ttl/time.Second)))
	}
	return &Store{
		Codecs: codecs,
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   86400,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// SplitKeys turns a comma separated secret list into signing keys, newest first.
func SplitKeys(secret string) [][]byte {
	var keys [][]byte
	for _, k := range strings.Split(secret, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return keys
}

// Get returns the session registered for the request, loading it on first use.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session identified by the request cookie. A missing,
// forged or expired cookie yields a new session without error. Only a
// repository failure is reported.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, nil
	}
	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		return session, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return session, nil
	}
	session.ID = rec.ID
	session.Values[dataKey] = rec.Data
	session.IsNew = false
	return session, nil
}

// Save persists the payload and writes the signed id cookie. A negative
// MaxAge deletes the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if len(s.Codecs) == 0 {
		return errNoKeys
	}
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.repo.Delete(r.Context(), session.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		session.ID = id
	}
	data, _ := session.Values[dataKey].(domain.SessionData)
	rec := domain.SessionRecord{ID: session.ID, Data: data, Expires: s.now().Add(s.ttl)}
	if err := s.repo.Save(r.Context(), rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Touch extends the record lifetime without rewriting the payload or cookie.
func (s *Store) Touch(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.repo.Touch(r.Context(), session.ID, s.now().Add(s.ttl))
}

// Delete removes the stored record of session.
func (s *Store) Delete(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	return s.repo.Delete(r.Context(), session.ID)
}

// newID returns an unguessable session identifier.
func newID() (string, error) {
	b := securecookie.GenerateRandomKey(idBytes)
	if b == nil {
		return "", errors.New("session: generate id")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
