package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/store/memstore"
)

func TestTotal(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	a := &models.Product{Title: "A", Price: 10}
	b := &models.Product{Title: "B", Price: 2.5}
	require.NoError(t, db.Products.Insert(ctx, a))
	require.NoError(t, db.Products.Insert(ctx, b))
	calc := NewCalculator(db.Products)

	total, err := calc.Total(ctx, []models.CartItem{
		{Product: a.ID, Quantity: 2},
		{Product: b.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 25.0, total)

	total, err = calc.Total(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTotalSkipsMissingProducts(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	a := &models.Product{Title: "A", Price: 4}
	require.NoError(t, db.Products.Insert(ctx, a))

	total, err := NewCalculator(db.Products).Total(ctx, []models.CartItem{
		{Product: a.ID, Quantity: 3},
		{Product: primitive.NewObjectID(), Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, total)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 25.0, Round2(25))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 59.97, Subtotal(19.99, 3))
}
