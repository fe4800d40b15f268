package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const OrderStatusPending OrderStatus = "pending"

// OrderItem freezes the unit price at the time the order was placed.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

// Order is written once by the order composer and never mutated afterwards,
// apart from the CartCleared progress flag.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Items          []OrderItem        `bson:"items" json:"items"`
	TotalAmount    float64            `bson:"totalAmount" json:"totalAmount"`
	Status         OrderStatus        `bson:"status" json:"status"`
	IdempotencyKey string             `bson:"idempotencyKey,omitempty" json:"-"`
	CartCleared    bool               `bson:"cartCleared" json:"-"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
