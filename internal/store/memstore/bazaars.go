package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type BazaarRepo struct{ s *Store }

func (r *BazaarRepo) Insert(_ context.Context, bazaar *models.Bazaar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignID(&bazaar.ID)
	stamp(&bazaar.CreatedAt)
	stamp(&bazaar.UpdatedAt)
	if bazaar.Categories == nil {
		bazaar.Categories = models.IDList{}
	}
	r.s.bazaars.put(bazaar.ID, cloneBazaar(*bazaar))
	return nil
}

func (r *BazaarRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Bazaar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bazaars.rows[id]
	if !ok {
		return models.Bazaar{}, store.ErrNotFound
	}
	return cloneBazaar(b), nil
}

func (r *BazaarRepo) List(_ context.Context, page store.Page) ([]models.Bazaar, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := make([]models.Bazaar, 0, len(r.s.bazaars.rows))
	r.s.bazaars.each(func(b models.Bazaar) { rows = append(rows, cloneBazaar(b)) })
	newestFirst(rows, func(b models.Bazaar) time.Time { return b.CreatedAt })
	return paginate(rows, page), int64(len(rows)), nil
}

func (r *BazaarRepo) Update(_ context.Context, bazaar *models.Bazaar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.bazaars.rows[bazaar.ID]
	if !ok {
		return store.ErrNotFound
	}
	bazaar.UpdatedAt = now()
	existing.Name = bazaar.Name
	existing.Status = bazaar.Status
	existing.PartitionInfo = bazaar.PartitionInfo
	existing.OpenDates = bazaar.OpenDates
	existing.OpenTimes = bazaar.OpenTimes
	existing.Location = bazaar.Location
	existing.UpdatedAt = bazaar.UpdatedAt
	r.s.bazaars.put(bazaar.ID, existing)
	return nil
}

func (r *BazaarRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.bazaars.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r *BazaarRepo) AddCategory(_ context.Context, bazaarID, categoryID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bazaars.rows[bazaarID]
	if !ok {
		return store.ErrNotFound
	}
	b.Categories = addToSet(cloneIDs(b.Categories), categoryID)
	r.s.bazaars.put(bazaarID, b)
	return nil
}

func (r *BazaarRepo) RemoveCategory(_ context.Context, bazaarID, categoryID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bazaars.rows[bazaarID]
	if !ok {
		return nil
	}
	b.Categories = pull(b.Categories, categoryID)
	r.s.bazaars.put(bazaarID, b)
	return nil
}
