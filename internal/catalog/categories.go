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

// AddCategories creates a category for each name that does not exist yet.
// Names are trimmed; blanks and existing names are skipped. Inserts run one
// at a time.
func (s *Service) AddCategories(ctx context.Context, names []string) ([]models.Category, error) {
	if len(names) == 0 {
		return nil, apperr.Validation("Please provide an array of category names")
	}
	saved := make([]models.Category, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		_, err := s.categories.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		now := time.Now()
		category := models.Category{Name: name, Products: models.IDList{}, CreatedAt: now, UpdatedAt: now}
		if err := s.categories.Insert(ctx, &category); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		saved = append(saved, category)
	}
	return saved, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// DeleteCategory detaches the category from its products, then deletes it.
func (s *Service) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Category not found")
	}
	if err := s.reconcile(ctx, id, category.Products, nil, s.productSide); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFound(err, "Category not found")
	}
	return nil
}
