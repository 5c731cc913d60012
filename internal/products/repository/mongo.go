package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-admin/internal/products"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const healthCheckTimeout = 2 * time.Second

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Quantity    int                `bson:"quantity"`
	Image       string             `bson:"image"`
}

func (d productDocument) toProduct() products.Product {
	return products.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Quantity:    d.Quantity,
		Image:       d.Image,
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongo(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) List(ctx context.Context) ([]products.Product, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	list := make([]products.Product, 0)
	for cur.Next(ctx) {
		var doc productDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		list = append(list, doc.toProduct())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return list, nil
}

func (r *MongoRepository) Create(ctx context.Context, in products.Input, image string) (products.Product, error) {
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Image:       image,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return products.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return doc.toProduct(), nil
}

// Update replaces name, description, price and quantity. A nil image leaves
// the stored image path untouched.
func (r *MongoRepository) Update(ctx context.Context, id string, in products.Input, image *string) (products.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return products.Product{}, products.ErrNotFound
	}

	set := bson.D{
		{Key: "name", Value: in.Name},
		{Key: "description", Value: in.Description},
		{Key: "price", Value: in.Price},
		{Key: "quantity", Value: in.Quantity},
	}
	if image != nil {
		set = append(set, bson.E{Key: "image", Value: *image})
	}

	var doc productDocument
	err = r.coll.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return products.Product{}, products.ErrNotFound
	}
	if err != nil {
		return products.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}

	return doc.toProduct(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return products.ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return products.ErrNotFound
	}

	return nil
}

func (r *MongoRepository) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
