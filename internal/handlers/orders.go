package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/orders"
)

const idempotencyKeyHeader = "Idempotency-Key"

// CreateOrder answers 201 for a new order and 200 when the Idempotency-Key
// matched an order placed earlier.
func CreateOrder(composer *orders.Composer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/createOrder"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))

		ctx, cancel := storeContext(c)
		defer cancel()

		result, err := composer.PlaceOrder(ctx, userID, key)
		if err != nil {
			respondError(c, route, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"message": "Order created successfully", "order": result.Order})
	}
}

func GetOrders(composer *orders.Composer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/getOrders"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		list, err := composer.ListOrders(ctx, userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		if len(list) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "No orders found", "orders": []orders.View{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list, "totalOrders": len(list)})
	}
}
