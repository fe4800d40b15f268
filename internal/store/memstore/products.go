package memstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store"
)

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Insert(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignID(&product.ID)
	stamp(&product.CreatedAt)
	stamp(&product.UpdatedAt)
	if product.Categories == nil {
		product.Categories = models.IDList{}
	}
	r.s.products.put(product.ID, cloneProduct(*product))
	return nil
}

func (r *ProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.rows[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Product, 0, len(ids))
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.s.products.rows[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *ProductRepo) List(_ context.Context, filter store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []models.Product
	r.s.products.each(func(p models.Product) {
		if !filter.Category.IsZero() && !p.Categories.Contains(filter.Category) {
			return
		}
		if !filter.Seller.IsZero() && p.Seller != filter.Seller {
			return
		}
		rows = append(rows, cloneProduct(p))
	})
	newestFirst(rows, func(p models.Product) time.Time { return p.CreatedAt })
	total := int64(len(rows))
	rows = paginate(rows, page)
	if rows == nil {
		rows = []models.Product{}
	}
	return rows, total, nil
}

func (r *ProductRepo) Update(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.products.rows[product.ID]
	if !ok {
		return store.ErrNotFound
	}
	product.UpdatedAt = now()
	existing.Title = product.Title
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Images = cloneStrings(product.Images)
	existing.Quantity = product.Quantity
	existing.Categories = cloneIDs(product.Categories)
	existing.UpdatedAt = product.UpdatedAt
	r.s.products.put(product.ID, existing)
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.products.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) AddReview(_ context.Context, id primitive.ObjectID, review models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	p = cloneProduct(p)
	p.Reviews = append(p.Reviews, review)
	r.s.products.put(id, p)
	return nil
}

func (r *ProductRepo) AddCategory(_ context.Context, productID, categoryID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.rows[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.Categories = addToSet(cloneIDs(p.Categories), categoryID)
	r.s.products.put(productID, p)
	return nil
}

func (r *ProductRepo) RemoveCategory(_ context.Context, productID, categoryID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.rows[productID]
	if !ok {
		return nil
	}
	p.Categories = pull(p.Categories, categoryID)
	r.s.products.put(productID, p)
	return nil
}
