package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/duynhne/groc-service/internal/core/domain"
)

// In-memory repositories back STORE_DRIVER=memory and the test suites.
// They follow the same contracts as the Mongo implementations.

// newMemoryID mints ids in the same ObjectID hex form the Mongo store uses.
func newMemoryID() string {
	return bson.NewObjectID().Hex()
}

// MemoryUserRepository implements domain.UserRepository in memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.UserRow
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.UserRow)}
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.UserRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			row := u
			return &row, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.UserRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(username, email), nil
}

func (r *MemoryUserRepository) existsLocked(username, email string) bool {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) Create(_ context.Context, username, email, passwordHash, role string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(username, email) {
		return "", domain.ErrDuplicate
	}
	id := newMemoryID()
	r.users[id] = domain.UserRow{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	return id, nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) SetRole(_ context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context, limit int) ([]domain.UserRow, error) {
	r.mu.RLock()
	rows := make([]domain.UserRow, 0, len(r.users))
	for _, u := range r.users {
		rows = append(rows, u)
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// MemoryProductRepository implements domain.ProductRepository in memory.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]domain.Product)}
}

func (r *MemoryProductRepository) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	q := strings.ToLower(f.Query)

	r.mu.RLock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	if f.Newest {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, p domain.Product) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p.ID = newMemoryID()
	p.CreatedAt, p.UpdatedAt = now, now
	r.products[p.ID] = p
	return p.ID, nil
}

func (r *MemoryProductRepository) Update(_ context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.products[p.ID] = p
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// MemorySessionRepository implements domain.SessionRepository in memory.
type MemorySessionRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]domain.SessionRecord
}

// NewMemorySessionRepository creates the repository. A nil clock means time.Now.
func NewMemorySessionRepository(now func() time.Time) *MemorySessionRepository {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionRepository{now: now, sessions: make(map[string]domain.SessionRecord)}
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if !rec.Expires.After(r.now()) {
		delete(r.sessions, id)
		return nil, nil
	}
	rec.Data = cloneSessionData(rec.Data)
	return &rec, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, rec domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Data = cloneSessionData(rec.Data)
	r.sessions[rec.ID] = rec
	return nil
}

func (r *MemorySessionRepository) Touch(_ context.Context, id string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return nil
	}
	rec.Expires = expires
	r.sessions[id] = rec
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Len returns the number of stored records, expired or not.
func (r *MemorySessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// cloneSessionData copies the payload so callers never share slices or maps with the store.
func cloneSessionData(d domain.SessionData) domain.SessionData {
	out := domain.SessionData{
		Cart:  append([]domain.CartLine(nil), d.Cart...),
		Flash: append([]string(nil), d.Flash...),
	}
	if d.User != nil {
		u := *d.User
		out.User = &u
	}
	if d.Values != nil {
		out.Values = make(map[string]string, len(d.Values))
		for k, v := range d.Values {
			out.Values[k] = v
		}
	}
	return out
}
