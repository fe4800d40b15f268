package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type CategoryRepo struct {
	coll *mongo.Collection
}

func (r *CategoryRepo) Insert(ctx context.Context, category *models.Category) error {
	res, err := r.coll.InsertOne(ctx, category)
	if err != nil {
		return translate(err)
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *CategoryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	var category models.Category
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	return category, translate(err)
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&category)
	return category, translate(err)
}

func (r *CategoryRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(ids))
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddProduct adds productID to the category's set. It fails with ErrNotFound
// when the category is gone so that a dangling reference is reported.
func (r *CategoryRepo) AddProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, categoryID, bson.M{"$addToSet": bson.M{"products": productID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveProduct pulls productID from the category's set.
func (r *CategoryRepo) RemoveProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, categoryID, bson.M{"$pull": bson.M{"products": productID}})
	return err
}

// IDsContainingProduct returns the categories whose set currently lists
// productID. Used to resynchronize a product after a partial failure.
func (r *CategoryRepo) IDsContainingProduct(ctx context.Context, productID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"products": productID}, opts)
	if err != nil {
		return nil, err
	}
	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
