// Package bazaar manages bazaars and their categories. A category belongs to
// at most one bazaar: BazaarCategory.bazaar is authoritative and
// Bazaar.categories is its mirror, maintained only through refs.Reconcile.
package bazaar

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/refs"
	"marketplace/internal/store"
)

type Bazaars interface {
	Insert(ctx context.Context, bazaar *models.Bazaar) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Bazaar, error)
	List(ctx context.Context, page store.Page) ([]models.Bazaar, int64, error)
	Update(ctx context.Context, bazaar *models.Bazaar) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) error
	RemoveCategory(ctx context.Context, bazaarID, categoryID primitive.ObjectID) error
}

type Categories interface {
	Insert(ctx context.Context, category *models.BazaarCategory) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.BazaarCategory, error)
	FindInBazaar(ctx context.Context, id, bazaarID primitive.ObjectID) (models.BazaarCategory, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.BazaarCategory, error)
	List(ctx context.Context, page store.Page) ([]models.BazaarCategory, int64, error)
	Update(ctx context.Context, category *models.BazaarCategory) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBazaar(ctx context.Context, bazaarID primitive.ObjectID) (int64, error)
	SetBazaar(ctx context.Context, categoryID, bazaarID primitive.ObjectID) error
	UnsetBazaar(ctx context.Context, categoryID, bazaarID primitive.ObjectID) error
}

type Service struct {
	bazaars    Bazaars
	categories Categories
	bazaarSide refs.Linker
	log        zerolog.Logger
}

func NewService(bazaars Bazaars, categories Categories, log zerolog.Logger) *Service {
	return &Service{
		bazaars:    bazaars,
		categories: categories,
		bazaarSide: refs.Funcs{AddFn: bazaars.AddCategory, RemoveFn: bazaars.RemoveCategory},
		log:        log.With().Str("component", "bazaar").Logger(),
	}
}

type Input struct {
	Name          string
	Status        string
	PartitionInfo string
	OpenDates     string
	OpenTimes     string
	Location      string
	CategoryIDs   []string
}

type Patch struct {
	Name          *string
	Status        *string
	PartitionInfo *string
	OpenDates     *string
	OpenTimes     *string
	Location      *string
}

// Detail is a bazaar with its categories expanded.
type Detail struct {
	models.Bazaar
	Categories []models.BazaarCategory `json:"categories"`
}

// Create inserts the bazaar and moves every listed category into it.
func (s *Service) Create(ctx context.Context, in Input) (Detail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Detail{}, apperr.Validation("Name is required")
	}
	status := models.BazaarStatusActive
	if in.Status != "" {
		status = models.BazaarStatus(in.Status)
		if !status.Valid() {
			return Detail{}, apperr.Validation("Status must be active or coming_soon")
		}
	}
	ids, err := models.ParseIDs(in.CategoryIDs)
	if err != nil {
		return Detail{}, apperr.Validation("Some category IDs are invalid")
	}
	categories, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return Detail{}, err
	}
	if len(categories) != len(ids) {
		return Detail{}, apperr.Validation("Some category IDs are invalid")
	}

	now := time.Now()
	bazaar := models.Bazaar{
		Name:          name,
		Status:        status,
		PartitionInfo: in.PartitionInfo,
		OpenDates:     in.OpenDates,
		OpenTimes:     in.OpenTimes,
		Location:      in.Location,
		Categories:    models.IDList{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bazaars.Insert(ctx, &bazaar); err != nil {
		return Detail{}, err
	}
	for _, c := range categories {
		if err := s.assign(ctx, c, &bazaar.ID); err != nil {
			return Detail{}, err
		}
	}
	return s.Get(ctx, bazaar.ID)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (Detail, error) {
	bazaar, err := s.find(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	categories, err := s.categories.FindByIDs(ctx, bazaar.Categories)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Bazaar: bazaar, Categories: categories}, nil
}

func (s *Service) List(ctx context.Context, page store.Page) ([]Detail, int64, error) {
	bazaars, total, err := s.bazaars.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	var ids []primitive.ObjectID
	for _, b := range bazaars {
		ids = append(ids, b.Categories...)
	}
	categories, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[primitive.ObjectID]models.BazaarCategory, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	out := make([]Detail, 0, len(bazaars))
	for _, b := range bazaars {
		d := Detail{Bazaar: b, Categories: make([]models.BazaarCategory, 0, len(b.Categories))}
		for _, id := range b.Categories {
			if c, ok := byID[id]; ok {
				d.Categories = append(d.Categories, c)
			}
		}
		out = append(out, d)
	}
	return out, total, nil
}

// Update changes the descriptive fields. Membership is changed through the
// category operations.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Bazaar, error) {
	bazaar, err := s.find(ctx, id)
	if err != nil {
		return models.Bazaar{}, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		bazaar.Name = strings.TrimSpace(*p.Name)
	}
	if p.Status != nil {
		status := models.BazaarStatus(*p.Status)
		if !status.Valid() {
			return models.Bazaar{}, apperr.Validation("Status must be active or coming_soon")
		}
		bazaar.Status = status
	}
	if p.PartitionInfo != nil {
		bazaar.PartitionInfo = *p.PartitionInfo
	}
	if p.OpenDates != nil {
		bazaar.OpenDates = *p.OpenDates
	}
	if p.OpenTimes != nil {
		bazaar.OpenTimes = *p.OpenTimes
	}
	if p.Location != nil {
		bazaar.Location = *p.Location
	}
	if err := s.bazaars.Update(ctx, &bazaar); err != nil {
		return models.Bazaar{}, notFound(err, "Bazaar not found")
	}
	return bazaar, nil
}

// Delete removes the bazaar together with the categories that belong to it.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	removed, err := s.categories.DeleteByBazaar(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bazaars.Delete(ctx, id); err != nil {
		return notFound(err, "Bazaar not found")
	}
	s.log.Info().Str("bazaarId", id.Hex()).Int64("categories", removed).Msg("bazaar deleted")
	return nil
}

func (s *Service) find(ctx context.Context, id primitive.ObjectID) (models.Bazaar, error) {
	bazaar, err := s.bazaars.FindByID(ctx, id)
	if err != nil {
		return models.Bazaar{}, notFound(err, "Bazaar not found")
	}
	return bazaar, nil
}

// assign moves category c to target (nil detaches it). The category's own
// field is written first; the bazaar-side sets follow via Reconcile.
func (s *Service) assign(ctx context.Context, c models.BazaarCategory, target *primitive.ObjectID) error {
	oldSet := c.BazaarSet()
	newSet := models.IDList{}
	switch {
	case target != nil:
		newSet = models.IDList{*target}
		if err := s.categories.SetBazaar(ctx, c.ID, *target); err != nil {
			return err
		}
	case c.Bazaar != nil:
		if err := s.categories.UnsetBazaar(ctx, c.ID, *c.Bazaar); err != nil {
			return err
		}
	}

	err := refs.Reconcile(ctx, c.ID, oldSet, newSet, s.bazaarSide)
	var perr *refs.PartialError
	if errors.As(err, &perr) {
		s.log.Error().Err(perr.Err).
			Str("category", c.ID.Hex()).
			Str("failed", perr.Failed.String()).
			Int("pending", len(perr.Remaining)).
			Msg("bazaar membership reconcile incomplete")
	}
	return err
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
