package cart

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/models"
)

type LineProduct struct {
	ID     primitive.ObjectID `json:"_id"`
	Name   string             `json:"name"`
	Price  float64            `json:"price"`
	Seller string             `json:"seller"`
	Image  []string           `json:"image"`
}

type Line struct {
	Product  LineProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

// View is the expanded cart returned to its owner.
type View struct {
	Products   []Line  `json:"products"`
	TotalPrice float64 `json:"totalPrice"`
}

// View loads (or lazily creates) the cart and expands each line with the
// product's current title, price, images and seller name. A line whose product
// was deleted stays visible with a zero price and an empty name.
func (m *Manager) View(ctx context.Context, userID primitive.ObjectID) (View, error) {
	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}

	products, err := m.products.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return View{}, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	sellers := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		sellers = append(sellers, p.Seller)
	}
	names, err := m.users.UsernamesByIDs(ctx, sellers)
	if err != nil {
		return View{}, err
	}

	view := View{Products: make([]Line, 0, len(cart.Products)), TotalPrice: cart.TotalPrice}
	for _, item := range cart.Products {
		line := Line{
			Product:  LineProduct{ID: item.Product, Seller: unknownSeller, Image: []string{}},
			Quantity: item.Quantity,
		}
		if p, ok := byID[item.Product]; ok {
			line.Product.Name = p.Title
			line.Product.Price = p.Price
			if p.Images != nil {
				line.Product.Image = p.Images
			}
			if name, ok := names[p.Seller]; ok && name != "" {
				line.Product.Seller = name
			}
		}
		view.Products = append(view.Products, line)
	}
	return view, nil
}
