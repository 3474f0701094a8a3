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

type sessionDocument struct {
	ID      string             `bson:"_id"`
	Session domain.SessionData `bson:"session"`
	Expires time.Time          `bson:"expires"`
}

// MongoSessionRepository implements domain.SessionRepository on the sessions collection.
type MongoSessionRepository struct {
	db CollectionProvider
	// now is replaceable in tests.
	now func() time.Time
}

// NewSessionRepository creates a new MongoSessionRepository.
func NewSessionRepository(db CollectionProvider) *MongoSessionRepository {
	return &MongoSessionRepository{db: db, now: time.Now}
}

// Get returns the record for id when it exists and has not expired.
// The TTL monitor only runs periodically, so expiry is also checked here.
func (r *MongoSessionRepository) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	coll, err := r.db.Collection(SessionsCollection)
	if err != nil {
		return nil, err
	}

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "expires", Value: bson.D{{Key: "$gt", Value: r.now().UTC()}}},
	}
	var doc sessionDocument
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &domain.SessionRecord{ID: doc.ID, Data: doc.Session, Expires: doc.Expires}, nil
}

// Save inserts or replaces the record.
func (r *MongoSessionRepository) Save(ctx context.Context, rec domain.SessionRecord) error {
	coll, err := r.db.Collection(SessionsCollection)
	if err != nil {
		return err
	}

	doc := sessionDocument{ID: rec.ID, Session: rec.Data, Expires: rec.Expires.UTC()}
	_, err = coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, doc, options.Replace().SetUpsert(true))
	return translate(err)
}

// Touch moves the expiration of an existing record.
func (r *MongoSessionRepository) Touch(ctx context.Context, id string, expires time.Time) error {
	coll, err := r.db.Collection(SessionsCollection)
	if err != nil {
		return err
	}

	_, err = coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "expires", Value: expires.UTC()}}}},
	)
	return translate(err)
}

// Delete removes the record.
func (r *MongoSessionRepository) Delete(ctx context.Context, id string) error {
	coll, err := r.db.Collection(SessionsCollection)
	if err != nil {
		return err
	}
	_, err = coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return translate(err)
}
