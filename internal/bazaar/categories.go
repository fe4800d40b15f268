package bazaar

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

const categoryNotInBazaar = "Category not found in this bazaar"

type CategoryInput struct {
	Name        string
	BrandsNames string
	Images      []string
	// Bazaar is only read by BulkAddCategories.
	Bazaar string
}

type CategoryPatch struct {
	Name        *string
	BrandsNames *string
	Images      []string
	// MoveTo reassigns the category to another bazaar.
	MoveTo *string
}

type BazaarRef struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// CategoryListing is a category with its bazaar's name resolved.
type CategoryListing struct {
	models.BazaarCategory
	Bazaar *BazaarRef `json:"bazaar"`
}

func (s *Service) AddCategory(ctx context.Context, bazaarID primitive.ObjectID, in CategoryInput) (models.BazaarCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.BazaarCategory{}, apperr.Validation("Name is required")
	}
	if _, err := s.find(ctx, bazaarID); err != nil {
		return models.BazaarCategory{}, err
	}
	category := models.BazaarCategory{
		Name:        strings.TrimSpace(in.Name),
		BrandsNames: in.BrandsNames,
		Images:      nonNil(in.Images),
	}
	if err := s.categories.Insert(ctx, &category); err != nil {
		return models.BazaarCategory{}, err
	}
	if err := s.assign(ctx, category, &bazaarID); err != nil {
		return models.BazaarCategory{}, err
	}
	category.Bazaar = &bazaarID
	return category, nil
}

func (s *Service) Categories(ctx context.Context, bazaarID primitive.ObjectID) ([]models.BazaarCategory, error) {
	bazaar, err := s.find(ctx, bazaarID)
	if err != nil {
		return nil, err
	}
	return s.categories.FindByIDs(ctx, bazaar.Categories)
}

func (s *Service) GetCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) (models.BazaarCategory, error) {
	category, err := s.categories.FindInBazaar(ctx, categoryID, bazaarID)
	if err != nil {
		return models.BazaarCategory{}, notFound(err, categoryNotInBazaar)
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID, p CategoryPatch) (models.BazaarCategory, error) {
	category, err := s.GetCategory(ctx, bazaarID, categoryID)
	if err != nil {
		return models.BazaarCategory{}, err
	}

	var target *primitive.ObjectID
	if p.MoveTo != nil {
		id, err := primitive.ObjectIDFromHex(*p.MoveTo)
		if err != nil {
			return models.BazaarCategory{}, apperr.Validation("Invalid bazaar id")
		}
		if _, err := s.find(ctx, id); err != nil {
			return models.BazaarCategory{}, err
		}
		target = &id
	}

	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		category.Name = strings.TrimSpace(*p.Name)
	}
	if p.BrandsNames != nil && *p.BrandsNames != "" {
		category.BrandsNames = *p.BrandsNames
	}
	if p.Images != nil {
		category.Images = p.Images
	}
	if err := s.categories.Update(ctx, &category); err != nil {
		return models.BazaarCategory{}, notFound(err, categoryNotInBazaar)
	}

	if target != nil && *target != bazaarID {
		if err := s.assign(ctx, category, target); err != nil {
			return models.BazaarCategory{}, err
		}
		category.Bazaar = target
	}
	return category, nil
}

// DeleteCategory deletes the category and drops it from its bazaar.
func (s *Service) DeleteCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) error {
	if _, err := s.find(ctx, bazaarID); err != nil {
		return err
	}
	category, err := s.GetCategory(ctx, bazaarID, categoryID)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return notFound(err, categoryNotInBazaar)
	}
	return s.assign(ctx, category, nil)
}

// BulkAddCategories inserts every well-formed entry. An entry naming a bazaar
// that exists is assigned to it; an unknown bazaar leaves the category
// unassigned rather than dangling.
func (s *Service) BulkAddCategories(ctx context.Context, entries []CategoryInput) ([]models.BazaarCategory, error) {
	if len(entries) == 0 {
		return nil, apperr.Validation("Please provide an array of categories")
	}
	saved := make([]models.BazaarCategory, 0, len(entries))
	for _, in := range entries {
		if strings.TrimSpace(in.Name) == "" || in.BrandsNames == "" || in.Images == nil {
			continue
		}
		category := models.BazaarCategory{
			Name:        strings.TrimSpace(in.Name),
			BrandsNames: in.BrandsNames,
			Images:      in.Images,
		}
		if err := s.categories.Insert(ctx, &category); err != nil {
			return nil, err
		}

		if id, err := primitive.ObjectIDFromHex(in.Bazaar); err == nil {
			_, err := s.bazaars.FindByID(ctx, id)
			switch {
			case err == nil:
				if err := s.assign(ctx, category, &id); err != nil {
					return nil, err
				}
				category.Bazaar = &id
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
		}
		saved = append(saved, category)
	}
	return saved, nil
}

func (s *Service) ListAllCategories(ctx context.Context, page store.Page) ([]CategoryListing, int64, error) {
	categories, total, err := s.categories.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	names := map[primitive.ObjectID]string{}
	for _, c := range categories {
		if c.Bazaar == nil {
			continue
		}
		if _, ok := names[*c.Bazaar]; ok {
			continue
		}
		b, err := s.bazaars.FindByID(ctx, *c.Bazaar)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, 0, err
		}
		names[*c.Bazaar] = b.Name
	}

	out := make([]CategoryListing, 0, len(categories))
	for _, c := range categories {
		l := CategoryListing{BazaarCategory: c}
		if c.Bazaar != nil {
			l.Bazaar = &BazaarRef{ID: *c.Bazaar, Name: names[*c.Bazaar]}
		}
		out = append(out, l)
	}
	return out, total, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
