package memstore

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type CategoryRepo struct{ s *Store }

func (r *CategoryRepo) Insert(_ context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories.rows {
		if c.Name == category.Name {
			return store.ErrDuplicate
		}
	}
	assignID(&category.ID)
	stamp(&category.CreatedAt)
	stamp(&category.UpdatedAt)
	if category.Products == nil {
		category.Products = models.IDList{}
	}
	r.s.categories.put(category.ID, cloneCategory(*category))
	return nil
}

func (r *CategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories.rows[id]
	if !ok {
		return models.Category{}, store.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (r *CategoryRepo) FindByName(_ context.Context, name string) (models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories.rows {
		if c.Name == name {
			return cloneCategory(c), nil
		}
	}
	return models.Category{}, store.ErrNotFound
}

func (r *CategoryRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.categories.rows[id]; ok {
			out = append(out, cloneCategory(c))
		}
	}
	return out, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Category, 0, len(r.s.categories.rows))
	r.s.categories.each(func(c models.Category) { out = append(out, cloneCategory(c)) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.categories.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) AddProduct(_ context.Context, categoryID, productID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories.rows[categoryID]
	if !ok {
		return store.ErrNotFound
	}
	c.Products = addToSet(cloneIDs(c.Products), productID)
	r.s.categories.put(categoryID, c)
	return nil
}

func (r *CategoryRepo) RemoveProduct(_ context.Context, categoryID, productID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories.rows[categoryID]
	if !ok {
		return nil
	}
	c.Products = pull(c.Products, productID)
	r.s.categories.put(categoryID, c)
	return nil
}

func (r *CategoryRepo) IDsContainingProduct(_ context.Context, productID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]primitive.ObjectID, 0)
	r.s.categories.each(func(c models.Category) {
		if c.Products.Contains(productID) {
			ids = append(ids, c.ID)
		}
	})
	return ids, nil
}
