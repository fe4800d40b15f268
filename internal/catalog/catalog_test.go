package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/refs"
	"marketplace/internal/store"
	"marketplace/internal/store/memstore"
)

var (
	storeAll = store.ProductFilter{}
	pageAll  = store.Page{}
)

type fixture struct {
	db      *memstore.Store
	svc     *Service
	seller  primitive.ObjectID
	catIDs  []primitive.ObjectID
	catHexs []string
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	db := memstore.New()
	f := &fixture{
		db:     db,
		svc:    NewService(db.Products, db.Categories, zerolog.Nop()),
		seller: primitive.NewObjectID(),
	}
	cats, err := f.svc.AddCategories(context.Background(), names)
	if len(names) > 0 {
		require.NoError(t, err)
	}
	for _, c := range cats {
		f.catIDs = append(f.catIDs, c.ID)
		f.catHexs = append(f.catHexs, c.ID.Hex())
	}
	return f
}

// assertConsistent checks P ∈ C.products ⇔ C ∈ P.category over the whole store.
func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	products, _, err := f.db.Products.List(ctx, storeAll, pageAll)
	require.NoError(t, err)
	categories, err := f.db.Categories.List(ctx)
	require.NoError(t, err)

	for _, p := range products {
		for _, c := range categories {
			assert.Equal(t, p.Categories.Contains(c.ID), c.Products.Contains(p.ID),
				"product %s / category %s", p.Title, c.Name)
		}
	}
	for _, c := range categories {
		for _, pid := range c.Products {
			_, err := f.db.Products.FindByID(ctx, pid)
			assert.NoError(t, err, "category %s lists a missing product", c.Name)
		}
	}
}

func (f *fixture) create(t *testing.T, title string, cats ...string) models.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), f.seller, ProductInput{
		Title: title, Price: 10, Quantity: 1, Categories: cats,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductLinksCategories(t *testing.T) {
	f := newFixture(t, "Shoes", "Bags")
	p := f.create(t, "Boot", f.catHexs[0], f.catHexs[1])

	for _, id := range f.catIDs {
		c, err := f.db.Categories.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.IDList{p.ID}, c.Products)
	}
	f.assertConsistent(t)
}

func TestCreateProductRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t, "Shoes")
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, f.seller, ProductInput{Title: "X", Categories: []string{primitive.NewObjectID().Hex()}})
	assert.EqualError(t, err, "Some category IDs are invalid")

	_, err = f.svc.CreateProduct(ctx, f.seller, ProductInput{Title: "X", Categories: []string{"nope"}})
	assert.EqualError(t, err, "Some category IDs are invalid")

	_, err = f.svc.CreateProduct(ctx, f.seller, ProductInput{Title: "X", Price: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	products, total, err := f.db.Products.List(ctx, storeAll, pageAll)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, total)
}

func TestUpdateProductMovesCategories(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	ctx := context.Background()
	p := f.create(t, "Lamp", f.catHexs[0], f.catHexs[1])

	cats := []string{f.catHexs[1], f.catHexs[2]}
	price := 12.5
	updated, err := f.svc.UpdateProduct(ctx, f.seller, p.ID, ProductPatch{Categories: &cats, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, models.IDList{f.catIDs[1], f.catIDs[2]}, updated.Categories)
	assert.Equal(t, 12.5, updated.Price)

	a, err := f.db.Categories.FindByID(ctx, f.catIDs[0])
	require.NoError(t, err)
	assert.Empty(t, a.Products)
	f.assertConsistent(t)
}

func TestDeleteProductRetractsFromCategories(t *testing.T) {
	f := newFixture(t, "A", "B")
	ctx := context.Background()
	keep := f.create(t, "Keep", f.catHexs[0])
	gone := f.create(t, "Gone", f.catHexs[0], f.catHexs[1])

	require.NoError(t, f.svc.DeleteProduct(ctx, f.seller, gone.ID))

	a, err := f.db.Categories.FindByID(ctx, f.catIDs[0])
	require.NoError(t, err)
	assert.Equal(t, models.IDList{keep.ID}, a.Products)
	f.assertConsistent(t)
}

func TestOnlySellerMayMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Mine")
	stranger := primitive.NewObjectID()

	title := "Stolen"
	_, err := f.svc.UpdateProduct(ctx, stranger, p.ID, ProductPatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	err = f.svc.DeleteProduct(ctx, stranger, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	stored, err := f.db.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", stored.Title)

	err = f.svc.DeleteProduct(ctx, f.seller, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConsistencyAcrossSequence(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	ctx := context.Background()
	p1 := f.create(t, "P1", f.catHexs[0])
	p2 := f.create(t, "P2", f.catHexs[0], f.catHexs[2])
	p3 := f.create(t, "P3")

	steps := [][]string{
		{f.catHexs[3]},
		{f.catHexs[0], f.catHexs[1], f.catHexs[3]},
		{},
		{f.catHexs[2], f.catHexs[2]},
	}
	for _, cats := range steps {
		cats := cats
		for _, p := range []models.Product{p1, p2, p3} {
			_, err := f.svc.UpdateProduct(ctx, f.seller, p.ID, ProductPatch{Categories: &cats})
			require.NoError(t, err)
		}
		f.assertConsistent(t)
	}
	require.NoError(t, f.svc.DeleteProduct(ctx, f.seller, p2.ID))
	require.NoError(t, f.svc.DeleteCategory(ctx, f.catIDs[2]))
	f.assertConsistent(t)

	p1now, err := f.db.Products.FindByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, p1now.Categories)
}

// failingCategories drops AddProduct for one category.
type failingCategories struct {
	*memstore.CategoryRepo
	failOn primitive.ObjectID
}

func (c *failingCategories) AddProduct(ctx context.Context, categoryID, productID primitive.ObjectID) error {
	if categoryID == c.failOn {
		return errors.New("connection reset")
	}
	return c.CategoryRepo.AddProduct(ctx, categoryID, productID)
}

func TestPartialFailureIsRepairable(t *testing.T) {
	f := newFixture(t, "A", "B")
	ctx := context.Background()
	broken := &failingCategories{CategoryRepo: f.db.Categories, failOn: f.catIDs[1]}
	svc := NewService(f.db.Products, broken, zerolog.Nop())

	_, err := svc.CreateProduct(ctx, f.seller, ProductInput{Title: "P", Categories: f.catHexs})
	var perr *refs.PartialError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, refs.Delta{Op: refs.OpAdd, Owner: f.catIDs[1]}, perr.Failed)

	products, _, err := f.db.Products.List(ctx, storeAll, pageAll)
	require.NoError(t, err)
	require.Len(t, products, 1)

	err = f.svc.RepairProductRefs(ctx, primitive.NewObjectID(), products[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, f.svc.RepairProductRefs(ctx, f.seller, products[0].ID))
	f.assertConsistent(t)
}

func TestAddCategoriesSkipsExisting(t *testing.T) {
	f := newFixture(t, "Shoes")
	ctx := context.Background()

	saved, err := f.svc.AddCategories(ctx, []string{" Shoes ", "Hats", "", "Hats"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Hats", saved[0].Name)

	all, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.AddCategories(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAddReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "P")
	buyer := primitive.NewObjectID()

	_, err := f.svc.AddReview(ctx, buyer, p.ID, 6, "great")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.AddReview(ctx, buyer, p.ID, 5, "great")
	require.NoError(t, err)

	stored, err := f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, buyer, stored.Reviews[0].User)
}
