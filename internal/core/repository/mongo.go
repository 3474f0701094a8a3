package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/groc-service/internal/core/domain"
)

// Collection names.
const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	SessionsCollection = "sessions"
)

// CollectionProvider hands out collections of the connected database.
// It returns domain.ErrUnavailable while the store is not connected.
type CollectionProvider interface {
	Collection(name string) (*mongo.Collection, error)
}

// EnsureIndexes creates the unique and TTL indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, p CollectionProvider) error {
	users, err := p.Collection(UsersCollection)
	if err != nil {
		return err
	}
	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	products, err := p.Collection(ProductsCollection)
	if err != nil {
		return err
	}
	if _, err := products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("products indexes: %w", err)
	}

	sessions, err := p.Collection(SessionsCollection)
	if err != nil {
		return err
	}
	// Records are purged by the server once "expires" is in the past.
	if _, err := sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}

// translate maps driver errors onto domain sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	default:
		return err
	}
}
