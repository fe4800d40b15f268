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

// ProductFilter narrows List. Zero values mean no restriction.
type ProductFilter struct {
	Category primitive.ObjectID
	Seller   primitive.ObjectID
}

func (f ProductFilter) bson() bson.M {
	filter := bson.M{}
	if !f.Category.IsZero() {
		filter["category"] = f.Category
	}
	if !f.Seller.IsZero() {
		filter["seller"] = f.Seller
	}
	return filter
}

type ProductRepo struct {
	coll *mongo.Collection
}

func (r *ProductRepo) Insert(ctx context.Context, product *models.Product) error {
	res, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		return translate(err)
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	return product, translate(err)
}

// FindByIDs returns the products that still exist; missing ids are skipped.
func (r *ProductRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(ids))
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepo) List(ctx context.Context, filter ProductFilter, page Page) ([]models.Product, int64, error) {
	query := filter.bson()
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(page.Skip).SetLimit(page.Limit)
	}
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Update writes the seller-editable fields. Category membership is written
// here as well; the reference maintainer owns the category side.
func (r *ProductRepo) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res, err := r.coll.UpdateByID(ctx, product.ID, bson.M{"$set": bson.M{
		"title":       product.Title,
		"description": product.Description,
		"price":       product.Price,
		"images":      product.Images,
		"quantity":    product.Quantity,
		"category":    product.Categories,
		"updatedAt":   product.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) AddReview(ctx context.Context, id primitive.ObjectID, review models.Review) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$push": bson.M{"reviews": review}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCategory adds categoryID to the product's set. Adding an existing member
// is a no-op.
func (r *ProductRepo) AddCategory(ctx context.Context, productID, categoryID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, productID, bson.M{"$addToSet": bson.M{"category": categoryID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveCategory pulls categoryID from the product's set. Missing products and
// absent members are not errors.
func (r *ProductRepo) RemoveCategory(ctx context.Context, productID, categoryID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, productID, bson.M{"$pull": bson.M{"category": categoryID}})
	return err
}
