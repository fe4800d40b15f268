package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type OrderRepo struct {
	coll *mongo.Collection
}

// Insert fails with ErrDuplicate when the user already has an order under the
// same idempotency key.
func (r *OrderRepo) Insert(ctx context.Context, order *models.Order) error {
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return translate(err)
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, translate(err)
}

func (r *OrderRepo) FindByUserAndKey(ctx context.Context, userID primitive.ObjectID, key string) (models.Order, error) {
	var order models.Order
	err := r.coll.FindOne(ctx, bson.M{"user": userID, "idempotencyKey": key}).Decode(&order)
	return order, translate(err)
}

// ListByUser returns the user's orders newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) MarkCartCleared(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"cartCleared": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUncleared returns orders created before the cutoff whose source cart was
// never confirmed empty.
func (r *OrderRepo) ListUncleared(ctx context.Context, before time.Time) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{
		"cartCleared": false,
		"createdAt":   bson.M{"$lt": before},
	}, opts)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
