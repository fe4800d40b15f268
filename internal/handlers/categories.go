package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/catalog"
)

type addCategoriesRequest struct {
	Names []string `json:"names"`
}

func AddCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /category/addCategories"
		defer handlePanic(c, route)

		var req addCategoriesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Please provide an array of category names")
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		saved, err := svc.AddCategories(ctx, req.Names)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Categories added successfully", "categories": saved})
	}
}

func GetAllCategories(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /category/getAllCategories"
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// DeleteCategory detaches the category from every product before removing it.
func DeleteCategory(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /category/:id"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		if err := svc.DeleteCategory(ctx, id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
