package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
	"marketplace/internal/pricing"
)

const unknownSeller = "Unknown"

type ItemProduct struct {
	ID     primitive.ObjectID `json:"_id"`
	Title  string             `json:"title"`
	Price  float64            `json:"price"`
	Seller string             `json:"seller"`
	Image  string             `json:"image"`
}

type Item struct {
	Product  ItemProduct `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal float64     `json:"subtotal"`
}

// View is an order as shown to its owner. Prices come from the order's
// snapshot; title, image and seller are read from the product as it is now.
type View struct {
	OrderID     primitive.ObjectID `json:"orderId"`
	Items       []Item             `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	Status      models.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	ItemCount   int                `json:"itemCount"`
}

func (c *Composer) present(ctx context.Context, orders []models.Order) ([]View, error) {
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, item := range o.Items {
			ids = append(ids, item.Product)
		}
	}
	products, err := c.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	sellers := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		sellers = append(sellers, p.Seller)
	}
	names, err := c.users.UsernamesByIDs(ctx, sellers)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for _, o := range orders {
		v := View{
			OrderID:     o.ID,
			Items:       make([]Item, 0, len(o.Items)),
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			ItemCount:   len(o.Items),
		}
		for _, item := range o.Items {
			ip := ItemProduct{ID: item.Product, Price: item.Price, Seller: unknownSeller}
			if p, ok := byID[item.Product]; ok {
				ip.Title = p.Title
				ip.Image = p.FirstImage()
				if name := names[p.Seller]; name != "" {
					ip.Seller = name
				}
			}
			v.Items = append(v.Items, Item{
				Product:  ip,
				Quantity: item.Quantity,
				Subtotal: pricing.Subtotal(item.Price, item.Quantity),
			})
		}
		views = append(views, v)
	}
	return views, nil
}
