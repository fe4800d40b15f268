package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/auth"
	"marketplace/internal/bazaar"
	"marketplace/internal/cart"
	"marketplace/internal/catalog"
	"marketplace/internal/events"
	"marketplace/internal/handlers"
	"marketplace/internal/orders"
	"marketplace/internal/store/memstore"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	db := memstore.New()

	var r *gin.Engine
	require.NotPanics(t, func() {
		r = NewRouter(Deps{
			Auth:    auth.NewService(db.Users, "secret", time.Hour, bcrypt.MinCost, log),
			Carts:   cart.NewManager(db.Carts, db.Products, db.Users, log),
			Orders:  orders.NewComposer(db.Orders, db.Carts, db.Products, db.Users, events.Noop{}, log),
			Catalog: catalog.NewService(db.Products, db.Categories, log),
			Bazaars: bazaar.NewService(db.Bazaars, db.BazaarCategories, log),
			Uploads: handlers.NewUploads(t.TempDir()),
			DB:      db,
			Log:     log,
		})
	})
	return r
}

func TestProtectedRoutesRejectAnonymousCalls(t *testing.T) {
	r := newTestRouter(t)
	id := "65a000000000000000000001"

	protected := []struct{ method, path string }{
		{http.MethodGet, "/users/" + id},
		{http.MethodGet, "/cart/getCart"},
		{http.MethodPost, "/cart/updateCart"},
		{http.MethodDelete, "/cart/empty"},
		{http.MethodPost, "/orders/createOrder"},
		{http.MethodGet, "/orders/getOrders"},
		{http.MethodPost, "/products"},
		{http.MethodGet, "/products/myproducts"},
		{http.MethodPut, "/products/" + id},
		{http.MethodPost, "/products/" + id + "/reconcile"},
		{http.MethodPost, "/category/addCategories"},
		{http.MethodDelete, "/category/" + id},
		{http.MethodPost, "/bazaar"},
		{http.MethodDelete, "/bazaar/" + id},
		{http.MethodPost, "/bazaar/categories/add"},
		{http.MethodPut, "/bazaar/" + id + "/categories/" + id},
	}
	for _, tc := range protected {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/healthz", "/products", "/category/getAllCategories", "/bazaar", "/bazaar/categories/all"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bazaar/65a000000000000000000001", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bazaar not found")
}
