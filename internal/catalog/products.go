package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

type ProductInput struct {
	Title       string
	Description string
	Price       float64
	Images      []string
	Categories  []string
	Quantity    int
}

// ProductPatch carries the fields of an update; nil means unchanged.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Images      []string
	Categories  *[]string
	Quantity    *int
}

func (s *Service) CreateProduct(ctx context.Context, sellerID primitive.ObjectID, in ProductInput) (models.Product, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Product{}, apperr.Validation("Title is required")
	}
	if err := validateAmounts(in.Price, in.Quantity); err != nil {
		return models.Product{}, err
	}
	categories, err := s.resolveCategories(ctx, in.Categories)
	if err != nil {
		return models.Product{}, err
	}

	now := time.Now()
	product := models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Images:      nonNil(in.Images),
		Categories:  categories,
		Quantity:    in.Quantity,
		Seller:      sellerID,
		Reviews:     []models.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Insert(ctx, &product); err != nil {
		return models.Product{}, err
	}
	if err := s.reconcile(ctx, product.ID, nil, product.Categories, s.categorySide); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// UpdateProduct applies patch when callerID is the product's seller.
func (s *Service) UpdateProduct(ctx context.Context, callerID, productID primitive.ObjectID, patch ProductPatch) (models.Product, error) {
	product, err := s.owned(ctx, callerID, productID)
	if err != nil {
		return models.Product{}, err
	}
	oldCategories := append(models.IDList(nil), product.Categories...)

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return models.Product{}, apperr.Validation("Title is required")
		}
		product.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Quantity != nil {
		product.Quantity = *patch.Quantity
	}
	if patch.Images != nil {
		product.Images = patch.Images
	}
	if err := validateAmounts(product.Price, product.Quantity); err != nil {
		return models.Product{}, err
	}
	if patch.Categories != nil {
		categories, err := s.resolveCategories(ctx, *patch.Categories)
		if err != nil {
			return models.Product{}, err
		}
		product.Categories = categories
	}

	if err := s.products.Update(ctx, &product); err != nil {
		return models.Product{}, notFound(err, "Product not found")
	}
	if err := s.reconcile(ctx, product.ID, oldCategories, product.Categories, s.categorySide); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// DeleteProduct removes the product and retracts it from every category.
func (s *Service) DeleteProduct(ctx context.Context, callerID, productID primitive.ObjectID) error {
	product, err := s.owned(ctx, callerID, productID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return notFound(err, "Product not found")
	}
	return s.reconcile(ctx, productID, product.Categories, nil, s.categorySide)
}

func (s *Service) GetProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return models.Product{}, notFound(err, "Product not found")
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	return s.products.List(ctx, filter, page)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Product, error) {
	products, _, err := s.products.List(ctx, store.ProductFilter{Seller: sellerID}, store.Page{})
	return products, err
}

func (s *Service) AddReview(ctx context.Context, userID, productID primitive.ObjectID, rating int, comment string) (models.Review, error) {
	if rating < 1 || rating > 5 {
		return models.Review{}, apperr.Validation("Rating must be between 1 and 5")
	}
	if strings.TrimSpace(comment) == "" {
		return models.Review{}, apperr.Validation("Comment is required")
	}
	review := models.Review{
		User:      userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now(),
	}
	if err := s.products.AddReview(ctx, productID, review); err != nil {
		return models.Review{}, notFound(err, "Product not found")
	}
	return review, nil
}

// RepairProductRefs rewrites Category.products so that exactly the categories
// listed on the product reference it. Only the seller may repair an existing
// product; when the product is gone any caller may clean the categories still
// listing it.
func (s *Service) RepairProductRefs(ctx context.Context, callerID, productID primitive.ObjectID) error {
	var want []primitive.ObjectID
	product, err := s.products.FindByID(ctx, productID)
	switch {
	case err == nil:
		if product.Seller != callerID {
			return apperr.Forbidden("You can only modify your own products")
		}
		want = product.Categories
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	observed, err := s.categories.IDsContainingProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.reconcile(ctx, productID, observed, want, s.categorySide)
}

func (s *Service) owned(ctx context.Context, callerID, productID primitive.ObjectID) (models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return models.Product{}, notFound(err, "Product not found")
	}
	if product.Seller != callerID {
		return models.Product{}, apperr.Forbidden("You can only modify your own products")
	}
	return product, nil
}

// resolveCategories parses the ids and checks that every one exists.
func (s *Service) resolveCategories(ctx context.Context, raw []string) (models.IDList, error) {
	ids, err := models.ParseIDs(raw)
	if err != nil {
		return nil, apperr.Validation("Some category IDs are invalid")
	}
	if len(ids) == 0 {
		return models.IDList{}, nil
	}
	found, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, apperr.Validation("Some category IDs are invalid")
	}
	return ids, nil
}

func validateAmounts(price float64, quantity int) error {
	if price < 0 {
		return apperr.Validation("Price must not be negative")
	}
	if quantity < 0 {
		return apperr.Validation("Quantity must not be negative")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
