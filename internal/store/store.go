// Package store is the MongoDB adapter. A Store is built once at start-up and
// handed to every component that needs persistence.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection            = "users"
	productsCollection         = "products"
	categoriesCollection       = "categories"
	cartsCollection            = "carts"
	ordersCollection           = "orders"
	bazaarsCollection          = "bazaars"
	bazaarCategoriesCollection = "bazaarcategories"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Page limits a listing query.
type Page struct {
	Skip  int64
	Limit int64
}

type Store struct {
	db *mongo.Database

	Users            *UserRepo
	Products         *ProductRepo
	Categories       *CategoryRepo
	Carts            *CartRepo
	Orders           *OrderRepo
	Bazaars          *BazaarRepo
	BazaarCategories *BazaarCategoryRepo
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:               db,
		Users:            &UserRepo{coll: db.Collection(usersCollection)},
		Products:         &ProductRepo{coll: db.Collection(productsCollection)},
		Categories:       &CategoryRepo{coll: db.Collection(categoriesCollection)},
		Carts:            &CartRepo{coll: db.Collection(cartsCollection)},
		Orders:           &OrderRepo{coll: db.Collection(ordersCollection)},
		Bazaars:          &BazaarRepo{coll: db.Collection(bazaarsCollection)},
		BazaarCategories: &BazaarCategoryRepo{coll: db.Collection(bazaarCategoriesCollection)},
	}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
