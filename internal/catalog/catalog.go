// Package catalog manages products and the categories they are filed under.
// Product.category is the authoritative side of the relation; every change to
// it is mirrored onto Category.products through refs.Reconcile and nowhere
// else.
package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/refs"
	"marketplace/internal/store"
)

type Products interface {
	Insert(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	List(ctx context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddReview(ctx context.Context, id primitive.ObjectID, review models.Review) error
	AddCategory(ctx context.Context, productID, categoryID primitive.ObjectID) error
	RemoveCategory(ctx context.Context, productID, categoryID primitive.ObjectID) error
}

type Categories interface {
	Insert(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Category, error)
	FindByName(ctx context.Context, name string) (models.Category, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error
	RemoveProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error
	IDsContainingProduct(ctx context.Context, productID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type Service struct {
	products   Products
	categories Categories
	log        zerolog.Logger

	// categorySide writes Category.products for a product subject.
	categorySide refs.Linker
	// productSide writes Product.category for a category subject.
	productSide refs.Linker
}

func NewService(products Products, categories Categories, log zerolog.Logger) *Service {
	return &Service{
		products:     products,
		categories:   categories,
		log:          log.With().Str("component", "catalog").Logger(),
		categorySide: refs.Funcs{AddFn: categories.AddProduct, RemoveFn: categories.RemoveProduct},
		productSide:  refs.Funcs{AddFn: products.AddCategory, RemoveFn: products.RemoveCategory},
	}
}

func (s *Service) reconcile(ctx context.Context, subject primitive.ObjectID, oldSet, newSet []primitive.ObjectID, l refs.Linker) error {
	err := refs.Reconcile(ctx, subject, oldSet, newSet, l)
	var perr *refs.PartialError
	if errors.As(err, &perr) {
		pending := make([]string, 0, len(perr.Remaining))
		for _, d := range perr.Remaining {
			pending = append(pending, d.String())
		}
		s.log.Error().Err(perr.Err).
			Str("subject", subject.Hex()).
			Str("failed", perr.Failed.String()).
			Strs("pending", pending).
			Msg("reference reconcile incomplete")
	}
	return err
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
