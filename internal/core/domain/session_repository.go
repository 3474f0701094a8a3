package domain

import (
	"context"
	"time"
)

// CurrentUser is the authenticated-user reference kept in a session payload.
type CurrentUser struct {
	ID       string `bson:"id" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Role     string `bson:"role" json:"role"`
}

// IsAdmin reports whether the referenced user holds the admin role.
func (u *CurrentUser) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// CartLine is one product entry of a session-scoped cart.
type CartLine struct {
	ProductID  string `bson:"product_id" json:"product_id"`
	Name       string `bson:"name" json:"name"`
	PriceCents int64  `bson:"price_cents" json:"price_cents"`
	Quantity   int    `bson:"quantity" json:"quantity"`
}

// SubtotalCents is the line price times quantity.
func (l CartLine) SubtotalCents() int64 { return l.PriceCents * int64(l.Quantity) }

// SessionData is the server-side payload of a session.
type SessionData struct {
	User   *CurrentUser      `bson:"user,omitempty" json:"user,omitempty"`
	Cart   []CartLine        `bson:"cart,omitempty" json:"cart,omitempty"`
	Flash  []string          `bson:"flash,omitempty" json:"flash,omitempty"`
	Values map[string]string `bson:"values,omitempty" json:"values,omitempty"`
}

// SessionRecord is a stored session keyed by its opaque identifier.
type SessionRecord struct {
	ID      string
	Data    SessionData
	Expires time.Time
}

// SessionRepository defines the data-access contract for session records.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// Get returns the record for id when it exists and has not expired.
	// Returns (nil, nil) otherwise.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// Save inserts or replaces the record.
	Save(ctx context.Context, rec SessionRecord) error

	// Touch moves the expiration of an existing record without changing its payload.
	Touch(ctx context.Context, id string, expires time.Time) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}
