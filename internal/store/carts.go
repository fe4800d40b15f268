package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"marketplace/internal/models"
)

type CartRepo struct {
	coll *mongo.Collection
}

func (r *CartRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	return cart, translate(err)
}

// Insert creates the user's cart. The unique index on user turns a concurrent
// second insert into ErrDuplicate.
func (r *CartRepo) Insert(ctx context.Context, cart *models.Cart) error {
	res, err := r.coll.InsertOne(ctx, cart)
	if err != nil {
		return translate(err)
	}
	cart.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Save overwrites the line items and total. Last write wins.
func (r *CartRepo) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	if cart.Products == nil {
		cart.Products = []models.CartItem{}
	}
	res, err := r.coll.UpdateByID(ctx, cart.ID, bson.M{"$set": bson.M{
		"products":   cart.Products,
		"totalPrice": cart.TotalPrice,
		"updatedAt":  cart.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
