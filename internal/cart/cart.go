// Package cart owns the one-live-cart-per-user invariant. Every mutation
// re-derives totalPrice from current product prices before it is persisted.
//
// Mutations for the same user are read-modify-write without a lock, so two
// concurrent edits can lose one update. The last write wins.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/pricing"
	"marketplace/internal/store"
)

const unknownSeller = "Unknown"

type Carts interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

type Products interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

type Users interface {
	UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type Manager struct {
	carts    Carts
	products Products
	users    Users
	pricing  *pricing.Calculator
	log      zerolog.Logger
}

func NewManager(carts Carts, products Products, users Users, log zerolog.Logger) *Manager {
	return &Manager{
		carts:    carts,
		products: products,
		users:    users,
		pricing:  pricing.NewCalculator(products),
		log:      log.With().Str("component", "cart").Logger(),
	}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (m *Manager) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	cart, err := m.carts.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Cart{}, err
	}

	now := time.Now()
	cart = models.Cart{
		User:      userID,
		Products:  []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = m.carts.Insert(ctx, &cart)
	if errors.Is(err, store.ErrDuplicate) {
		// another request created it first
		return m.carts.FindByUser(ctx, userID)
	}
	if err != nil {
		return models.Cart{}, err
	}
	m.log.Debug().Str("userId", userID.Hex()).Msg("cart created")
	return cart, nil
}

// UpsertLine adds quantity to the product's line, appending a new line when
// the product is not in the cart yet.
func (m *Manager) UpsertLine(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, apperr.Validation("Quantity must be a positive integer")
	}
	if _, err := m.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Cart{}, apperr.NotFound("Product not found")
		}
		return models.Cart{}, err
	}

	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}

	merged := false
	for i := range cart.Products {
		if cart.Products[i].Product == productID {
			cart.Products[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Products = append(cart.Products, models.CartItem{Product: productID, Quantity: quantity})
	}

	if err := m.save(ctx, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (m *Manager) RemoveLine(ctx context.Context, userID, productID primitive.ObjectID) (models.Cart, error) {
	cart, err := m.existing(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}

	idx := -1
	for i, item := range cart.Products {
		if item.Product == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Cart{}, apperr.NotFound("Product not found in cart")
	}
	cart.Products = append(cart.Products[:idx], cart.Products[idx+1:]...)

	if err := m.save(ctx, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

// Clear empties the cart but keeps the document.
func (m *Manager) Clear(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	cart, err := m.existing(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}
	cart.Products = []models.CartItem{}
	cart.TotalPrice = 0
	if err := m.carts.Save(ctx, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (m *Manager) existing(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	cart, err := m.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Cart{}, apperr.NotFound("Cart not found")
	}
	return cart, err
}

func (m *Manager) save(ctx context.Context, cart *models.Cart) error {
	total, err := m.pricing.Total(ctx, cart.Products)
	if err != nil {
		return err
	}
	cart.TotalPrice = total
	return m.carts.Save(ctx, cart)
}
