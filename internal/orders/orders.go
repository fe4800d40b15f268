// Package orders turns a cart into an immutable order.
//
// Placing an order is a two-step saga without a transaction: the order is
// written first with cartCleared=false, then the cart is emptied and the flag
// set. A crash or store failure between the two steps leaves an order whose
// cart still holds the purchased lines; RepairUncleared finishes those, and an
// Idempotency-Key lets a client retry without creating a second order.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/apperr"
	"marketplace/internal/events"
	"marketplace/internal/models"
	"marketplace/internal/pricing"
	"marketplace/internal/store"
)

type Orders interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByUserAndKey(ctx context.Context, userID primitive.ObjectID, key string) (models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	MarkCartCleared(ctx context.Context, id primitive.ObjectID) error
	ListUncleared(ctx context.Context, before time.Time) ([]models.Order, error)
}

type Carts interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

type Products interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

type Users interface {
	UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type Composer struct {
	orders    Orders
	carts     Carts
	products  Products
	users     Users
	pricing   *pricing.Calculator
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewComposer(orders Orders, carts Carts, products Products, users Users, publisher events.Publisher, log zerolog.Logger) *Composer {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Composer{
		orders:    orders,
		carts:     carts,
		products:  products,
		users:     users,
		pricing:   pricing.NewCalculator(products),
		publisher: publisher,
		log:       log.With().Str("component", "orders").Logger(),
		// the store keeps millisecond precision
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Result is what PlaceOrder hands back. Replayed is set when the idempotency
// key matched an order placed earlier.
type Result struct {
	Order    View
	Replayed bool
}

// PlaceOrder snapshots the user's cart into a new order and empties the cart.
func (c *Composer) PlaceOrder(ctx context.Context, userID primitive.ObjectID, idempotencyKey string) (Result, error) {
	if idempotencyKey != "" {
		prior, err := c.orders.FindByUserAndKey(ctx, userID, idempotencyKey)
		if err == nil {
			return c.replay(ctx, prior)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return Result{}, err
		}
	}

	cart, err := c.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(cart.Products) == 0) {
		return Result{}, apperr.Validation("Cart is empty")
	}
	if err != nil {
		return Result{}, err
	}

	prices, err := c.pricing.Prices(ctx, cart.ProductIDs())
	if err != nil {
		return Result{}, err
	}
	items := make([]models.OrderItem, 0, len(cart.Products))
	total := 0.0
	for _, line := range cart.Products {
		price := prices[line.Product]
		items = append(items, models.OrderItem{Product: line.Product, Quantity: line.Quantity, Price: price})
		total += price * float64(line.Quantity)
	}

	order := models.Order{
		User:           userID,
		Items:          items,
		TotalAmount:    pricing.Round2(total),
		Status:         models.OrderStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      c.now(),
	}
	if err := c.orders.Insert(ctx, &order); err != nil {
		if errors.Is(err, store.ErrDuplicate) && idempotencyKey != "" {
			// a concurrent request with the same key won the insert
			prior, findErr := c.orders.FindByUserAndKey(ctx, userID, idempotencyKey)
			if findErr != nil {
				return Result{}, findErr
			}
			return c.replay(ctx, prior)
		}
		return Result{}, err
	}

	cart.Products = []models.CartItem{}
	cart.TotalPrice = 0
	if err := c.carts.Save(ctx, &cart); err != nil {
		c.log.Error().Err(err).
			Str("orderId", order.ID.Hex()).
			Str("userId", userID.Hex()).
			Msg("order created but cart not cleared")
		return Result{}, apperr.Conflict("Order was created but the cart could not be cleared", err)
	}
	if err := c.orders.MarkCartCleared(ctx, order.ID); err != nil {
		// the cart is already empty; repair will set the flag
		c.log.Warn().Err(err).Str("orderId", order.ID.Hex()).Msg("could not mark cart cleared")
	} else {
		order.CartCleared = true
	}

	c.log.Info().
		Str("orderId", order.ID.Hex()).
		Str("userId", userID.Hex()).
		Float64("totalAmount", order.TotalAmount).
		Int("items", len(order.Items)).
		Msg("order placed")
	c.publish(ctx, order)

	views, err := c.present(ctx, []models.Order{order})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: views[0]}, nil
}

// ListOrders returns the user's orders newest first.
func (c *Composer) ListOrders(ctx context.Context, userID primitive.ObjectID) ([]View, error) {
	orders, err := c.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.present(ctx, orders)
}

func (c *Composer) replay(ctx context.Context, order models.Order) (Result, error) {
	if !order.CartCleared {
		if err := c.finishClear(ctx, order); err != nil {
			c.log.Error().Err(err).Str("orderId", order.ID.Hex()).Msg("replay could not clear cart")
			return Result{}, apperr.Conflict("Order was created but the cart could not be cleared", err)
		}
	}
	views, err := c.present(ctx, []models.Order{order})
	if err != nil {
		return Result{}, err
	}
	return Result{Order: views[0], Replayed: true}, nil
}

// finishClear empties the order's source cart unless the user has edited it
// since the order was placed, then records the step as done.
func (c *Composer) finishClear(ctx context.Context, order models.Order) error {
	cart, err := c.carts.FindByUser(ctx, order.User)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	case !cart.UpdatedAt.After(order.CreatedAt) && len(cart.Products) > 0:
		cart.Products = []models.CartItem{}
		cart.TotalPrice = 0
		if err := c.carts.Save(ctx, &cart); err != nil {
			return err
		}
	}
	return c.orders.MarkCartCleared(ctx, order.ID)
}

func (c *Composer) publish(ctx context.Context, order models.Order) {
	err := c.publisher.PublishOrderPlaced(ctx, events.OrderPlaced{
		OrderID:     order.ID.Hex(),
		UserID:      order.User.Hex(),
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	})
	if err != nil {
		c.log.Warn().Err(err).Str("orderId", order.ID.Hex()).Msg("order event not published")
	}
}
