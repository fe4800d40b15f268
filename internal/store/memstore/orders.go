package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type OrderRepo struct{ s *Store }

func (r *OrderRepo) Insert(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.IdempotencyKey != "" {
		for _, o := range r.s.orders.rows {
			if o.User == order.User && o.IdempotencyKey == order.IdempotencyKey {
				return store.ErrDuplicate
			}
		}
	}
	assignID(&order.ID)
	stamp(&order.CreatedAt)
	r.s.orders.put(order.ID, cloneOrder(*order))
	return nil
}

func (r *OrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders.rows[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepo) FindByUserAndKey(_ context.Context, userID primitive.ObjectID, key string) (models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders.rows {
		if o.User == userID && o.IdempotencyKey == key {
			return cloneOrder(o), nil
		}
	}
	return models.Order{}, store.ErrNotFound
}

func (r *OrderRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Order, 0)
	r.s.orders.each(func(o models.Order) {
		if o.User == userID {
			out = append(out, cloneOrder(o))
		}
	})
	newestFirst(out, func(o models.Order) time.Time { return o.CreatedAt })
	return out, nil
}

func (r *OrderRepo) MarkCartCleared(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	o.CartCleared = true
	r.s.orders.put(id, o)
	return nil
}

func (r *OrderRepo) ListUncleared(_ context.Context, before time.Time) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Order, 0)
	r.s.orders.each(func(o models.Order) {
		if !o.CartCleared && o.CreatedAt.Before(before) {
			out = append(out, cloneOrder(o))
		}
	})
	return out, nil
}
