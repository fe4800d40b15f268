package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketplace/internal/models"
)

type BazaarCategoryRepo struct {
	coll *mongo.Collection
}

func (r *BazaarCategoryRepo) Insert(ctx context.Context, category *models.BazaarCategory) error {
	res, err := r.coll.InsertOne(ctx, category)
	if err != nil {
		return translate(err)
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *BazaarCategoryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.BazaarCategory, error) {
	var category models.BazaarCategory
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	return category, translate(err)
}

// FindInBazaar loads a category only if it belongs to bazaarID.
func (r *BazaarCategoryRepo) FindInBazaar(ctx context.Context, id, bazaarID primitive.ObjectID) (models.BazaarCategory, error) {
	var category models.BazaarCategory
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "bazaar": bazaarID}).Decode(&category)
	return category, translate(err)
}

func (r *BazaarCategoryRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.BazaarCategory, error) {
	if len(ids) == 0 {
		return []models.BazaarCategory{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	categories := make([]models.BazaarCategory, 0, len(ids))
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *BazaarCategoryRepo) List(ctx context.Context, page Page) ([]models.BazaarCategory, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSkip(page.Skip).SetLimit(page.Limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	categories := make([]models.BazaarCategory, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// Update writes the descriptive fields; the owning bazaar is changed through
// SetBazaar and UnsetBazaar.
func (r *BazaarCategoryRepo) Update(ctx context.Context, category *models.BazaarCategory) error {
	res, err := r.coll.UpdateByID(ctx, category.ID, bson.M{"$set": bson.M{
		"name":        category.Name,
		"brandsNames": category.BrandsNames,
		"images":      category.Images,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BazaarCategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BazaarCategoryRepo) DeleteByBazaar(ctx context.Context, bazaarID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"bazaar": bazaarID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetBazaar points the category at bazaarID.
func (r *BazaarCategoryRepo) SetBazaar(ctx context.Context, categoryID, bazaarID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, categoryID, bson.M{"$set": bson.M{"bazaar": bazaarID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UnsetBazaar clears the owner only while it is still bazaarID, so a stale
// removal cannot detach a category that has since moved elsewhere.
func (r *BazaarCategoryRepo) UnsetBazaar(ctx context.Context, categoryID, bazaarID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": categoryID, "bazaar": bazaarID},
		bson.M{"$set": bson.M{"bazaar": nil}},
	)
	return err
}
