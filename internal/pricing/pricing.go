// Package pricing derives cart totals from current product prices.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
)

type Products interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

type Calculator struct {
	products Products
}

func NewCalculator(products Products) *Calculator {
	return &Calculator{products: products}
}

// Prices returns the current unit price of every product that still exists.
// Deleted products are absent from the map.
func (c *Calculator) Prices(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]float64, error) {
	products, err := c.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	prices := make(map[primitive.ObjectID]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	return prices, nil
}

// Total sums price × quantity over the lines. A line whose product no longer
// exists contributes 0. The result is not rounded.
func (c *Calculator) Total(ctx context.Context, lines []models.CartItem) (float64, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.Product)
	}
	prices, err := c.Prices(ctx, ids)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, l := range lines {
		total += prices[l.Product] * float64(l.Quantity)
	}
	return total, nil
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Subtotal is price × quantity rounded to two decimals.
func Subtotal(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}
