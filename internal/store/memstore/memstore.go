// Package memstore is an in-process implementation of the store repositories.
// It mirrors the MongoDB adapter's semantics (unique keys, $addToSet/$pull,
// newest-first listings). It is a test double for component and handler
// tests; nothing is persisted, so do not wire it into main.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type table[T any] struct {
	rows  map[primitive.ObjectID]T
	order []primitive.ObjectID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[primitive.ObjectID]T{}}
}

func (t *table[T]) put(id primitive.ObjectID, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) remove(id primitive.ObjectID) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// each visits rows in insertion order.
func (t *table[T]) each(fn func(T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

type Store struct {
	mu sync.Mutex

	users            *table[models.User]
	products         *table[models.Product]
	categories       *table[models.Category]
	carts            *table[models.Cart]
	orders           *table[models.Order]
	bazaars          *table[models.Bazaar]
	bazaarCategories *table[models.BazaarCategory]

	Users            *UserRepo
	Products         *ProductRepo
	Categories       *CategoryRepo
	Carts            *CartRepo
	Orders           *OrderRepo
	Bazaars          *BazaarRepo
	BazaarCategories *BazaarCategoryRepo
}

func New() *Store {
	s := &Store{
		users:            newTable[models.User](),
		products:         newTable[models.Product](),
		categories:       newTable[models.Category](),
		carts:            newTable[models.Cart](),
		orders:           newTable[models.Order](),
		bazaars:          newTable[models.Bazaar](),
		bazaarCategories: newTable[models.BazaarCategory](),
	}
	s.Users = &UserRepo{s: s}
	s.Products = &ProductRepo{s: s}
	s.Categories = &CategoryRepo{s: s}
	s.Carts = &CartRepo{s: s}
	s.Orders = &OrderRepo{s: s}
	s.Bazaars = &BazaarRepo{s: s}
	s.BazaarCategories = &BazaarCategoryRepo{s: s}
	return s
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// now matches the millisecond precision of stored BSON dates.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = now()
	}
}

func addToSet(list models.IDList, id primitive.ObjectID) models.IDList {
	if list.Contains(id) {
		return list
	}
	return append(list, id)
}

func pull(list models.IDList, id primitive.ObjectID) models.IDList {
	out := make(models.IDList, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneIDs(list models.IDList) models.IDList {
	out := make(models.IDList, len(list))
	copy(out, list)
	return out
}

func cloneStrings(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func cloneProduct(p models.Product) models.Product {
	p.Images = cloneStrings(p.Images)
	p.Categories = cloneIDs(p.Categories)
	reviews := make([]models.Review, len(p.Reviews))
	copy(reviews, p.Reviews)
	p.Reviews = reviews
	return p
}

func cloneCategory(c models.Category) models.Category {
	c.Products = cloneIDs(c.Products)
	return c
}

func cloneCart(c models.Cart) models.Cart {
	items := make([]models.CartItem, len(c.Products))
	copy(items, c.Products)
	c.Products = items
	return c
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func cloneBazaar(b models.Bazaar) models.Bazaar {
	b.Categories = cloneIDs(b.Categories)
	return b
}

func cloneBazaarCategory(c models.BazaarCategory) models.BazaarCategory {
	c.Images = cloneStrings(c.Images)
	if c.Bazaar != nil {
		id := *c.Bazaar
		c.Bazaar = &id
	}
	return c
}

func paginate[T any](rows []T, page store.Page) []T {
	if page.Limit <= 0 {
		return rows
	}
	start := page.Skip
	if start > int64(len(rows)) {
		start = int64(len(rows))
	}
	end := start + page.Limit
	if end > int64(len(rows)) {
		end = int64(len(rows))
	}
	return rows[start:end]
}

// newestFirst orders rows by created time descending; later inserts win ties.
func newestFirst[T any](rows []T, created func(T) time.Time) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return created(rows[i]).After(created(rows[j]))
	})
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
