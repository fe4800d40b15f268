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

type BazaarRepo struct {
	coll *mongo.Collection
}

func (r *BazaarRepo) Insert(ctx context.Context, bazaar *models.Bazaar) error {
	res, err := r.coll.InsertOne(ctx, bazaar)
	if err != nil {
		return translate(err)
	}
	bazaar.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *BazaarRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Bazaar, error) {
	var bazaar models.Bazaar
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&bazaar)
	return bazaar, translate(err)
}

func (r *BazaarRepo) List(ctx context.Context, page Page) ([]models.Bazaar, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSkip(page.Skip).
		SetLimit(page.Limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	bazaars := make([]models.Bazaar, 0)
	if err := cursor.All(ctx, &bazaars); err != nil {
		return nil, 0, err
	}
	return bazaars, total, nil
}

// Update writes the descriptive fields only; Categories is maintained through
// AddCategory and RemoveCategory.
func (r *BazaarRepo) Update(ctx context.Context, bazaar *models.Bazaar) error {
	bazaar.UpdatedAt = time.Now()
	res, err := r.coll.UpdateByID(ctx, bazaar.ID, bson.M{"$set": bson.M{
		"name":          bazaar.Name,
		"status":        bazaar.Status,
		"partitionInfo": bazaar.PartitionInfo,
		"openDates":     bazaar.OpenDates,
		"openTimes":     bazaar.OpenTimes,
		"location":      bazaar.Location,
		"updatedAt":     bazaar.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BazaarRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BazaarRepo) AddCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, bazaarID, bson.M{"$addToSet": bson.M{"categories": categoryID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BazaarRepo) RemoveCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, bazaarID, bson.M{"$pull": bson.M{"categories": categoryID}})
	return err
}
