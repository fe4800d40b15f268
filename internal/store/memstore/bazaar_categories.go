package memstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type BazaarCategoryRepo struct{ s *Store }

func (r *BazaarCategoryRepo) Insert(_ context.Context, category *models.BazaarCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignID(&category.ID)
	r.s.bazaarCategories.put(category.ID, cloneBazaarCategory(*category))
	return nil
}

func (r *BazaarCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.BazaarCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.bazaarCategories.rows[id]
	if !ok {
		return models.BazaarCategory{}, store.ErrNotFound
	}
	return cloneBazaarCategory(c), nil
}

func (r *BazaarCategoryRepo) FindInBazaar(_ context.Context, id, bazaarID primitive.ObjectID) (models.BazaarCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.bazaarCategories.rows[id]
	if !ok || c.Bazaar == nil || *c.Bazaar != bazaarID {
		return models.BazaarCategory{}, store.ErrNotFound
	}
	return cloneBazaarCategory(c), nil
}

func (r *BazaarCategoryRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.BazaarCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.BazaarCategory, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.bazaarCategories.rows[id]; ok {
			out = append(out, cloneBazaarCategory(c))
		}
	}
	return out, nil
}

func (r *BazaarCategoryRepo) List(_ context.Context, page store.Page) ([]models.BazaarCategory, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := make([]models.BazaarCategory, 0, len(r.s.bazaarCategories.rows))
	r.s.bazaarCategories.each(func(c models.BazaarCategory) { rows = append(rows, cloneBazaarCategory(c)) })
	return paginate(rows, page), int64(len(rows)), nil
}

func (r *BazaarCategoryRepo) Update(_ context.Context, category *models.BazaarCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.bazaarCategories.rows[category.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name = category.Name
	existing.BrandsNames = category.BrandsNames
	existing.Images = cloneStrings(category.Images)
	r.s.bazaarCategories.put(category.ID, existing)
	return nil
}

func (r *BazaarCategoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.bazaarCategories.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r *BazaarCategoryRepo) DeleteByBazaar(_ context.Context, bazaarID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var doomed []primitive.ObjectID
	r.s.bazaarCategories.each(func(c models.BazaarCategory) {
		if c.Bazaar != nil && *c.Bazaar == bazaarID {
			doomed = append(doomed, c.ID)
		}
	})
	for _, id := range doomed {
		r.s.bazaarCategories.remove(id)
	}
	return int64(len(doomed)), nil
}

func (r *BazaarCategoryRepo) SetBazaar(_ context.Context, categoryID, bazaarID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.bazaarCategories.rows[categoryID]
	if !ok {
		return store.ErrNotFound
	}
	id := bazaarID
	c.Bazaar = &id
	r.s.bazaarCategories.put(categoryID, c)
	return nil
}

func (r *BazaarCategoryRepo) UnsetBazaar(_ context.Context, categoryID, bazaarID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.bazaarCategories.rows[categoryID]
	if !ok || c.Bazaar == nil || *c.Bazaar != bazaarID {
		return nil
	}
	c.Bazaar = nil
	r.s.bazaarCategories.put(categoryID, c)
	return nil
}
