package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/internal/bazaar"
)

const (
	defaultBazaarLimit   = 10
	defaultCategoryLimit = 20
)

type createBazaarRequest struct {
	Name          string `json:"name" binding:"required"`
	Status        string `json:"status"`
	PartitionInfo string `json:"partitionInfo"`
	OpenDates     string `json:"openDates"`
	OpenTimes     string `json:"openTimes"`
	Location      string `json:"location"`
	CategoriesIDs idList `json:"categoriesIds"`
}

type updateBazaarRequest struct {
	Name          *string `json:"name"`
	Status        *string `json:"status"`
	PartitionInfo *string `json:"partitionInfo"`
	OpenDates     *string `json:"openDates"`
	OpenTimes     *string `json:"openTimes"`
	Location      *string `json:"location"`
}

type bazaarCategoryRequest struct {
	Name        string   `json:"name" binding:"required"`
	BrandsNames string   `json:"brandsNames"`
	Images      []string `json:"images"`
}

type updateBazaarCategoryRequest struct {
	Name        *string  `json:"name"`
	BrandsNames *string  `json:"brandsNames"`
	Images      []string `json:"images"`
	// Bazaar moves the category to another bazaar.
	Bazaar *string `json:"bazaar"`
}

type bulkCategoryEntry struct {
	Name        string   `json:"name"`
	BrandsNames string   `json:"brandsNames"`
	Images      []string `json:"images"`
	Bazaar      string   `json:"bazaar"`
}

type bulkCategoriesRequest struct {
	Categories []json.RawMessage `json:"categories"`
}

func CreateBazaar(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /bazaar"
		defer handlePanic(c, route)

		var req createBazaarRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		detail, err := svc.Create(ctx, bazaar.Input{
			Name:          req.Name,
			Status:        req.Status,
			PartitionInfo: req.PartitionInfo,
			OpenDates:     req.OpenDates,
			OpenTimes:     req.OpenTimes,
			Location:      req.Location,
			CategoryIDs:   req.CategoriesIDs,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, detail)
	}
}

func GetBazaars(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bazaar"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), defaultBazaarLimit)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		bazaars, total, err := svc.List(ctx, pageOf(page, limit))
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"bazaars":      bazaars,
			"currentPage":  page,
			"totalPages":   totalPages(total, limit),
			"totalBazaars": total,
		})
	}
}

func GetBazaar(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bazaar/:id"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		detail, err := svc.Get(ctx, id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func UpdateBazaar(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /bazaar/:id"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		var req updateBazaarRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		updated, err := svc.Update(ctx, id, bazaar.Patch{
			Name:          req.Name,
			Status:        req.Status,
			PartitionInfo: req.PartitionInfo,
			OpenDates:     req.OpenDates,
			OpenTimes:     req.OpenTimes,
			Location:      req.Location,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteBazaar(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /bazaar/:id"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		if err := svc.Delete(ctx, id); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Bazaar deleted successfully"})
	}
}

func AddBazaarCategory(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /bazaar/:id/categories"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		var req bazaarCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		category, err := svc.AddCategory(ctx, id, bazaar.CategoryInput{
			Name:        req.Name,
			BrandsNames: req.BrandsNames,
			Images:      req.Images,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func GetBazaarCategories(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bazaar/:id/categories"
		defer handlePanic(c, route)

		id, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		categories, err := svc.Categories(ctx, id)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func GetBazaarCategory(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bazaar/:id/categories/:categoryId"
		defer handlePanic(c, route)

		bazaarID, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		categoryID, ok := pathID(c, route, "categoryId")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		category, err := svc.GetCategory(ctx, bazaarID, categoryID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func UpdateBazaarCategory(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /bazaar/:id/categories/:categoryId"
		defer handlePanic(c, route)

		bazaarID, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		categoryID, ok := pathID(c, route, "categoryId")
		if !ok {
			return
		}
		var req updateBazaarCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		category, err := svc.UpdateCategory(ctx, bazaarID, categoryID, bazaar.CategoryPatch{
			Name:        req.Name,
			BrandsNames: req.BrandsNames,
			Images:      req.Images,
			MoveTo:      req.Bazaar,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func DeleteBazaarCategory(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /bazaar/:id/categories/:categoryId"
		defer handlePanic(c, route)

		bazaarID, ok := pathID(c, route, "id")
		if !ok {
			return
		}
		categoryID, ok := pathID(c, route, "categoryId")
		if !ok {
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		if err := svc.DeleteCategory(ctx, bazaarID, categoryID); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category removed from bazaar successfully"})
	}
}

// BulkAddBazaarCategories skips entries that do not decode.
func BulkAddBazaarCategories(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /bazaar/categories/add"
		defer handlePanic(c, route)

		var req bulkCategoriesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Please provide an array of categories")
			return
		}
		entries := make([]bazaar.CategoryInput, 0, len(req.Categories))
		for _, raw := range req.Categories {
			var e bulkCategoryEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			entries = append(entries, bazaar.CategoryInput{
				Name:        e.Name,
				BrandsNames: e.BrandsNames,
				Images:      e.Images,
				Bazaar:      e.Bazaar,
			})
		}
		if len(req.Categories) > 0 && len(entries) == 0 {
			c.JSON(http.StatusCreated, gin.H{"message": "BazaarCategories added successfully", "categories": entries})
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		saved, err := svc.BulkAddCategories(ctx, entries)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "BazaarCategories added successfully", "categories": saved})
	}
}

func GetAllBazaarCategories(svc *bazaar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /bazaar/categories/all"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), defaultCategoryLimit)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		ctx, cancel := storeContext(c)
		defer cancel()

		categories, total, err := svc.ListAllCategories(ctx, pageOf(page, limit))
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"categories":      categories,
			"currentPage":     page,
			"totalPages":      totalPages(total, limit),
			"totalCategories": total,
		})
	}
}
