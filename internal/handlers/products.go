package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"marketplace/internal/catalog"
	"marketplace/internal/refs"
	"marketplace/internal/store"
)

const defaultProductLimit = 10

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func CreateProduct(svc *catalog.Service, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products"
		defer handlePanic(c, route)

		sellerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		req, err := bindProductRequest(c, uploads)
		if err != nil {
			respondMultipartError(c, route, err)
			return
		}

		if foreign := req.foreignUploads(nil); len(foreign) > 0 {
			req.discard(c, uploads)
			respondWithError(c, http.StatusBadRequest, route, "Unknown image path: "+foreign[0])
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		product, err := svc.CreateProduct(ctx, sellerID, req.input())
		if err != nil {
			if !productWritten(err) {
				req.discard(c, uploads)
			}
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

// GetProducts lists products newest first, optionally filtered by ?category.
func GetProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), defaultProductLimit)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		var filter store.ProductFilter
		if raw := strings.TrimSpace(c.Query("category")); raw != "" {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "Invalid category id")
				return
			}
			filter.Category = id
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		products, total, err := svc.ListProducts(ctx, filter, pageOf(page, limit))
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"products":      products,
			"currentPage":   page,
			"totalPages":    totalPages(total, limit),
			"totalProducts": total,
		})
	}
}

func GetMyProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/myproducts"
		defer handlePanic(c, route)

		sellerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		products, err := svc.ListBySeller(ctx, sellerID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		product, err := svc.GetProduct(ctx, id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// UpdateProduct applies the fields present in the body. A multipart update
// replaces the image list with the kept paths plus the new files; uploads
// dropped from the list are removed from disk. Upload paths the product did
// not already carry are refused.
func UpdateProduct(svc *catalog.Service, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /products/:id"
		defer handlePanic(c, route)

		callerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		req, err := bindProductRequest(c, uploads)
		if err != nil {
			respondMultipartError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		before, err := svc.GetProduct(ctx, id)
		if err != nil {
			req.discard(c, uploads)
			respondError(c, route, err)
			return
		}
		if foreign := req.foreignUploads(before.Images); len(foreign) > 0 {
			req.discard(c, uploads)
			respondWithError(c, http.StatusBadRequest, route, "Unknown image path: "+foreign[0])
			return
		}
		product, err := svc.UpdateProduct(ctx, callerID, id, req.patch())
		if err != nil {
			if !productWritten(err) {
				req.discard(c, uploads)
			}
			respondError(c, route, err)
			return
		}
		if req.Images != nil {
			removeUploads(c, uploads, droppedImages(before.Images, product.Images))
		}
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(svc *catalog.Service, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/:id"
		defer handlePanic(c, route)

		callerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		product, err := svc.GetProduct(ctx, id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		if err := svc.DeleteProduct(ctx, callerID, id); err != nil {
			if productWritten(err) {
				removeUploads(c, uploads, product.Images)
			}
			respondError(c, route, err)
			return
		}
		removeUploads(c, uploads, product.Images)
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}

func AddReview(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products/:id/reviews"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		review, err := svc.AddReview(ctx, userID, id, req.Rating, req.Comment)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// ReconcileProduct re-applies the product's category set onto the category
// side, finishing an update that failed part way.
func ReconcileProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products/:id/reconcile"
		defer handlePanic(c, route)

		callerID, ok := currentUser(c, route)
		if !ok {
			return
		}
		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		if err := svc.RepairProductRefs(ctx, callerID, id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product categories reconciled"})
	}
}

// productWritten reports whether the product document was stored before err
// happened. Only the category mirror can fail after the write.
func productWritten(err error) bool {
	var perr *refs.PartialError
	return errors.As(err, &perr)
}

func droppedImages(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, p := range after {
		kept[p] = struct{}{}
	}
	var dropped []string
	for _, p := range before {
		if _, ok := kept[p]; !ok {
			dropped = append(dropped, p)
		}
	}
	return dropped
}

func removeUploads(c *gin.Context, uploads *Uploads, paths []string) {
	for _, p := range paths {
		if !isUpload(p) {
			continue
		}
		if err := uploads.Delete(p); err != nil {
			logFor(c).Warn().Err(err).Str("path", p).Msg("image delete failed")
		}
	}
}
