package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/groc-service/internal/core/domain"
)

type productDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	PriceCents  int64         `bson:"price_cents"`
	Stock       int           `bson:"stock"`
	ImageURL    string        `bson:"image_url,omitempty"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d productDocument) product() domain.Product {
	return domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		PriceCents:  d.PriceCents,
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoProductRepository implements domain.ProductRepository on the products collection.
type MongoProductRepository struct {
	db CollectionProvider
}

// NewProductRepository creates a new MongoProductRepository.
func NewProductRepository(db CollectionProvider) *MongoProductRepository {
	return &MongoProductRepository{db: db}
}

// List returns products matching the filter.
func (r *MongoProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return nil, err
	}

	filter := bson.D{}
	if f.Query != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}})
	}

	sort := bson.D{{Key: "name", Value: 1}}
	if f.Newest {
		sort = bson.D{{Key: "created_at", Value: -1}}
	}
	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cur.Close(ctx)

	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.product())
	}
	return products, nil
}

// GetByID returns the product or (nil, nil) when absent.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(err)
	}
	p := doc.product()
	return &p, nil
}

// Create inserts p and returns the generated id.
func (r *MongoProductRepository) Create(ctx context.Context, p domain.Product) (string, error) {
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	doc := productDocument{
		ID:          bson.NewObjectID(),
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", translate(err)
	}
	return doc.ID.Hex(), nil
}

// Update replaces the mutable fields of p.
func (r *MongoProductRepository) Update(ctx context.Context, p domain.Product) error {
	oid, err := bson.ObjectIDFromHex(p.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: p.Name},
		{Key: "description", Value: p.Description},
		{Key: "price_cents", Value: p.PriceCents},
		{Key: "stock", Value: p.Stock},
		{Key: "image_url", Value: p.ImageURL},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the product.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of products.
func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.db.Collection(ProductsCollection)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	return n, translate(err)
}
