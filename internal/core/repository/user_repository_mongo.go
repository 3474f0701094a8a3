package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/groc-service/internal/core/domain"
)

type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Role         string        `bson:"role"`
	CreatedAt    time.Time     `bson:"created_at"`
	LastLogin    *time.Time    `bson:"last_login,omitempty"`
}

func (d userDocument) row() *domain.UserRow {
	return &domain.UserRow{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		LastLogin:    d.LastLogin,
	}
}

// MongoUserRepository implements domain.UserRepository on the users collection.
type MongoUserRepository struct {
	db CollectionProvider
}

// NewUserRepository creates a new MongoUserRepository.
func NewUserRepository(db CollectionProvider) *MongoUserRepository {
	return &MongoUserRepository{db: db}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*domain.UserRow, error) {
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return doc.row(), nil
}

// GetByUsername returns the user matching the given username.
// Returns (nil, nil) when no user is found.
func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserRow, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

// GetByID returns the user with the given id, or (nil, nil).
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.UserRow, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// ExistsByUsernameOrEmail returns true when a user with the given
// username or email already exists.
func (r *MongoUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return false, err
	}

	n, err := coll.CountDocuments(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: email}},
	}}}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// Create inserts a new user and returns the generated user ID.
func (r *MongoUserRepository) Create(ctx context.Context, username, email, passwordHash, role string) (string, error) {
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return "", err
	}

	doc := userDocument{
		ID:           bson.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", translate(err)
	}
	return doc.ID.Hex(), nil
}

// UpdateLastLogin sets the last_login timestamp to now for the given user.
func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return r.update(ctx, id, bson.D{{Key: "last_login", Value: time.Now().UTC()}})
}

// SetRole changes the role of the given user.
func (r *MongoUserRepository) SetRole(ctx context.Context, id, role string) error {
	return r.update(ctx, id, bson.D{{Key: "role", Value: role}})
}

func (r *MongoUserRepository) update(ctx context.Context, id string, set bson.D) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns users ordered by creation time, newest first.
func (r *MongoUserRepository) List(ctx context.Context, limit int) ([]domain.UserRow, error) {
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	rows := make([]domain.UserRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, *d.row())
	}
	return rows, nil
}

// Count returns the number of users.
func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.db.Collection(UsersCollection)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	return n, translate(err)
}
