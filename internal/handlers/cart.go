package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/cart"
)

type updateCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func GetCart(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart/getCart"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		view, err := carts.View(ctx, userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func UpdateCart(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/updateCart"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product id")
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		updated, err := carts.UpsertLine(ctx, userID, productID, req.Quantity)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func RemoveFromCart(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/removeProduct/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		productID, ok := pathID(c, route, "productId")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		updated, err := carts.RemoveLine(ctx, userID, productID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func EmptyCart(carts *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/empty"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		emptied, err := carts.Clear(ctx, userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart emptied successfully", "cart": emptied})
	}
}
