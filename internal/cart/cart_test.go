package cart

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store/memstore"
)

type fixture struct {
	db      *memstore.Store
	manager *Manager
	seller  models.User
	user    primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	seller := models.User{Username: "maria", Email: "maria@example.com"}
	require.NoError(t, db.Users.Insert(context.Background(), &seller))
	return &fixture{
		db:      db,
		manager: NewManager(db.Carts, db.Products, db.Users, zerolog.Nop()),
		seller:  seller,
		user:    primitive.NewObjectID(),
	}
}

func (f *fixture) product(t *testing.T, title string, price float64) models.Product {
	t.Helper()
	p := models.Product{Title: title, Price: price, Seller: f.seller.ID, Images: []string{title + ".jpg"}}
	require.NoError(t, f.db.Products.Insert(context.Background(), &p))
	return p
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.manager.GetOrCreate(ctx, f.user)
	require.NoError(t, err)
	second, err := f.manager.GetOrCreate(ctx, f.user)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Products)
	assert.Zero(t, second.TotalPrice)
}

func TestUpsertLineMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 5)

	_, err := f.manager.UpsertLine(ctx, f.user, a.ID, 1)
	require.NoError(t, err)
	_, err = f.manager.UpsertLine(ctx, f.user, b.ID, 1)
	require.NoError(t, err)
	cart, err := f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)

	require.Len(t, cart.Products, 2)
	assert.Equal(t, models.CartItem{Product: a.ID, Quantity: 3}, cart.Products[0])
	assert.Equal(t, 35.0, cart.TotalPrice)

	stored, err := f.db.Carts.FindByUser(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 35.0, stored.TotalPrice)
}

func TestUpsertLineRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)

	_, err := f.manager.UpsertLine(ctx, f.user, a.ID, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.manager.UpsertLine(ctx, f.user, a.ID, -3)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.manager.UpsertLine(ctx, f.user, primitive.NewObjectID(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTotalFollowsCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 5)

	_, err := f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)

	a.Price = 12
	require.NoError(t, f.db.Products.Update(ctx, &a))

	cart, err := f.manager.UpsertLine(ctx, f.user, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 29.0, cart.TotalPrice)
}

func TestRemoveLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 5)

	_, err := f.manager.RemoveLine(ctx, f.user, a.ID)
	assert.EqualError(t, err, "Cart not found")

	_, err = f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)
	_, err = f.manager.UpsertLine(ctx, f.user, b.ID, 1)
	require.NoError(t, err)

	_, err = f.manager.RemoveLine(ctx, f.user, primitive.NewObjectID())
	assert.EqualError(t, err, "Product not found in cart")

	cart, err := f.manager.RemoveLine(ctx, f.user, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{Product: b.ID, Quantity: 1}}, cart.Products)
	assert.Equal(t, 5.0, cart.TotalPrice)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)

	_, err := f.manager.Clear(ctx, f.user)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)
	cart, err := f.manager.Clear(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
	assert.Zero(t, cart.TotalPrice)

	stored, err := f.db.Carts.FindByUser(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, stored.ID)
	assert.Empty(t, stored.Products)
}

func TestDeletedProductIsPricedAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	b := f.product(t, "B", 5)

	_, err := f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)
	_, err = f.manager.UpsertLine(ctx, f.user, b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.db.Products.Delete(ctx, a.ID))

	cart, err := f.manager.UpsertLine(ctx, f.user, b.ID, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Products, 2)
	assert.Equal(t, 10.0, cart.TotalPrice)

	view, err := f.manager.View(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, view.Products, 2)
	stale := view.Products[0]
	assert.Equal(t, a.ID, stale.Product.ID)
	assert.Equal(t, "", stale.Product.Name)
	assert.Zero(t, stale.Product.Price)
	assert.Equal(t, "Unknown", stale.Product.Seller)
}

func TestViewExpandsLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10)
	orphan := models.Product{Title: "C", Price: 1, Seller: primitive.NewObjectID()}
	require.NoError(t, f.db.Products.Insert(ctx, &orphan))

	_, err := f.manager.UpsertLine(ctx, f.user, a.ID, 2)
	require.NoError(t, err)
	_, err = f.manager.UpsertLine(ctx, f.user, orphan.ID, 1)
	require.NoError(t, err)

	view, err := f.manager.View(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 21.0, view.TotalPrice)
	assert.Equal(t, Line{
		Product:  LineProduct{ID: a.ID, Name: "A", Price: 10, Seller: "maria", Image: []string{"A.jpg"}},
		Quantity: 2,
	}, view.Products[0])
	assert.Equal(t, "Unknown", view.Products[1].Product.Seller)
}
