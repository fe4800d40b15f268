// Package server assembles the HTTP routes.
package server

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketplace/internal/auth"
	"marketplace/internal/bazaar"
	"marketplace/internal/cart"
	"marketplace/internal/catalog"
	"marketplace/internal/handlers"
	"marketplace/internal/middleware"
	"marketplace/internal/orders"
)

type Deps struct {
	Auth      *auth.Service
	Carts     *cart.Manager
	Orders    *orders.Composer
	Catalog   *catalog.Service
	Bazaars   *bazaar.Service
	Uploads   *handlers.Uploads
	DB        handlers.Pinger
	PublicDir string
	Origins   []string
	Log       zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.CORS(d.Origins))
	if d.PublicDir != "" {
		r.Static("/public", filepath.Clean(d.PublicDir))
	}

	requireUser := middleware.UserAuth(d.Auth, d.Log)

	r.GET("/healthz", handlers.Health(d.DB))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register(d.Auth))
		authGroup.POST("/login", handlers.Login(d.Auth))
	}

	users := r.Group("/users", requireUser)
	{
		users.GET("/:id", handlers.GetUser(d.Auth))
		users.PUT("/:id", handlers.UpdateUser(d.Auth))
	}

	cartGroup := r.Group("/cart", requireUser)
	{
		cartGroup.GET("/getCart", handlers.GetCart(d.Carts))
		cartGroup.POST("/updateCart", handlers.UpdateCart(d.Carts))
		cartGroup.DELETE("/removeProduct/:productId", handlers.RemoveFromCart(d.Carts))
		cartGroup.DELETE("/empty", handlers.EmptyCart(d.Carts))
	}

	orderGroup := r.Group("/orders", requireUser)
	{
		orderGroup.POST("/createOrder", handlers.CreateOrder(d.Orders))
		orderGroup.GET("/getOrders", handlers.GetOrders(d.Orders))
	}

	products := r.Group("/products")
	{
		products.GET("", handlers.GetProducts(d.Catalog))
		products.GET("/myproducts", requireUser, handlers.GetMyProducts(d.Catalog))
		products.GET("/:id", handlers.GetProduct(d.Catalog))
		products.POST("", requireUser, handlers.CreateProduct(d.Catalog, d.Uploads))
		products.PUT("/:id", requireUser, handlers.UpdateProduct(d.Catalog, d.Uploads))
		products.DELETE("/:id", requireUser, handlers.DeleteProduct(d.Catalog, d.Uploads))
		products.POST("/:id/reviews", requireUser, handlers.AddReview(d.Catalog))
		products.POST("/:id/reconcile", requireUser, handlers.ReconcileProduct(d.Catalog))
	}

	category := r.Group("/category")
	{
		category.GET("/getAllCategories", handlers.GetAllCategories(d.Catalog))
		category.POST("/addCategories", requireUser, handlers.AddCategories(d.Catalog))
		category.DELETE("/:id", requireUser, handlers.DeleteCategory(d.Catalog))
	}

	bazaars := r.Group("/bazaar")
	{
		bazaars.GET("", handlers.GetBazaars(d.Bazaars))
		bazaars.POST("", requireUser, handlers.CreateBazaar(d.Bazaars))
		bazaars.GET("/categories/all", handlers.GetAllBazaarCategories(d.Bazaars))
		bazaars.POST("/categories/add", requireUser, handlers.BulkAddBazaarCategories(d.Bazaars))
		bazaars.GET("/:id", handlers.GetBazaar(d.Bazaars))
		bazaars.PUT("/:id", requireUser, handlers.UpdateBazaar(d.Bazaars))
		bazaars.DELETE("/:id", requireUser, handlers.DeleteBazaar(d.Bazaars))
		bazaars.GET("/:id/categories", handlers.GetBazaarCategories(d.Bazaars))
		bazaars.POST("/:id/categories", requireUser, handlers.AddBazaarCategory(d.Bazaars))
		bazaars.GET("/:id/categories/:categoryId", handlers.GetBazaarCategory(d.Bazaars))
		bazaars.PUT("/:id/categories/:categoryId", requireUser, handlers.UpdateBazaarCategory(d.Bazaars))
		bazaars.DELETE("/:id/categories/:categoryId", requireUser, handlers.DeleteBazaarCategory(d.Bazaars))
	}

	return r
}
