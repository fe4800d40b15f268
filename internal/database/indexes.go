package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

// indexPlan lists every index the store relies on. The unique ones back
// store.ErrDuplicate: one account per email, one cart per user, one category
// per name and one order per (user, idempotency key).
func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		}}},
		{"carts", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetName("user_unique").SetUnique(true),
		}}},
		{"categories", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("name_unique").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "products", Value: 1}},
				Options: options.Index().SetName("products_index"),
			},
		}},
		{"products", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "seller", Value: 1}},
				Options: options.Index().SetName("seller_index"),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("category_createdAt_index"),
			},
		}},
		{"orders", []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("user_createdAt_index"),
			},
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().
					SetName("user_idempotencyKey_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{
						"idempotencyKey": bson.M{"$exists": true},
					}),
			},
			{
				Keys:    bson.D{{Key: "cartCleared", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("cartCleared_createdAt_index"),
			},
		}},
		{"bazaarcategories", []mongo.IndexModel{{
			Keys:    bson.D{{Key: "bazaar", Value: 1}},
			Options: options.Index().SetName("bazaar_index"),
		}}},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left alone.
func EnsureIndexes(db *mongo.Database, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, plan := range indexPlan() {
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		if err != nil {
			log.Error().Err(err).Str("collection", plan.collection).Msg("index creation failed")
			return err
		}
		log.Debug().Str("collection", plan.collection).Strs("indexes", names).Msg("indexes ensured")
	}
	return nil
}
