package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type CartRepo struct{ s *Store }

func (r *CartRepo) FindByUser(_ context.Context, userID primitive.ObjectID) (models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts.rows {
		if c.User == userID {
			return cloneCart(c), nil
		}
	}
	return models.Cart{}, store.ErrNotFound
}

func (r *CartRepo) Insert(_ context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts.rows {
		if c.User == cart.User {
			return store.ErrDuplicate
		}
	}
	assignID(&cart.ID)
	stamp(&cart.CreatedAt)
	stamp(&cart.UpdatedAt)
	if cart.Products == nil {
		cart.Products = []models.CartItem{}
	}
	r.s.carts.put(cart.ID, cloneCart(*cart))
	return nil
}

func (r *CartRepo) Save(_ context.Context, cart *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.carts.rows[cart.ID]
	if !ok {
		return store.ErrNotFound
	}
	cart.UpdatedAt = now()
	if cart.Products == nil {
		cart.Products = []models.CartItem{}
	}
	existing.Products = cart.Products
	existing.TotalPrice = cart.TotalPrice
	existing.UpdatedAt = cart.UpdatedAt
	r.s.carts.put(cart.ID, cloneCart(existing))
	return nil
}

// SetUpdatedAt overrides a cart's modification time. Tests use it to place a
// cart edit before or after an order.
func (r *CartRepo) SetUpdatedAt(userID primitive.ObjectID, at time.Time) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.carts.rows {
		if c.User == userID {
			c.UpdatedAt = at
			r.s.carts.rows[id] = c
		}
	}
}
