package handlers

import (
	"bytes"
	"context"
	"encoding/json"
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
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/orders"
	"marketplace/internal/store/memstore"
)

type testApp struct {
	db      *memstore.Store
	auth    *auth.Service
	catalog *catalog.Service
	uploads *Uploads
	router  *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWith(t, nil)
}

// newTestAppWith builds the app over categories when given, so tests can
// inject failures into the category side of product writes.
func newTestAppWith(t *testing.T, categories func(*memstore.Store) catalog.Categories) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	db := memstore.New()
	var cats catalog.Categories = db.Categories
	if categories != nil {
		cats = categories(db)
	}
	app := &testApp{
		db:      db,
		auth:    auth.NewService(db.Users, "test-secret", time.Hour, bcrypt.MinCost, log),
		catalog: catalog.NewService(db.Products, cats, log),
		uploads: NewUploads(t.TempDir()),
	}
	carts := cart.NewManager(db.Carts, db.Products, db.Users, log)
	composer := orders.NewComposer(db.Orders, db.Carts, db.Products, db.Users, events.Noop{}, log)
	bazaars := bazaar.NewService(db.Bazaars, db.BazaarCategories, log)

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	user := middleware.UserAuth(app.auth, log)

	r.GET("/healthz", Health(db))
	r.POST("/auth/register", Register(app.auth))
	r.POST("/auth/login", Login(app.auth))
	r.PUT("/users/:id", user, UpdateUser(app.auth))

	r.GET("/cart/getCart", user, GetCart(carts))
	r.POST("/cart/updateCart", user, UpdateCart(carts))
	r.DELETE("/cart/removeProduct/:productId", user, RemoveFromCart(carts))
	r.DELETE("/cart/empty", user, EmptyCart(carts))
	r.POST("/orders/createOrder", user, CreateOrder(composer))
	r.GET("/orders/getOrders", user, GetOrders(composer))

	r.GET("/products", GetProducts(app.catalog))
	r.POST("/products", user, CreateProduct(app.catalog, app.uploads))
	r.PUT("/products/:id", user, UpdateProduct(app.catalog, app.uploads))
	r.DELETE("/products/:id", user, DeleteProduct(app.catalog, app.uploads))
	r.POST("/products/:id/reviews", user, AddReview(app.catalog))
	r.POST("/products/:id/reconcile", user, ReconcileProduct(app.catalog))
	r.POST("/category/addCategories", user, AddCategories(app.catalog))

	r.GET("/bazaar", GetBazaars(bazaars))
	r.POST("/bazaar", user, CreateBazaar(bazaars))
	r.POST("/bazaar/categories/add", user, BulkAddBazaarCategories(bazaars))
	r.GET("/bazaar/categories/all", GetAllBazaarCategories(bazaars))

	app.router = r
	return app
}

// login registers a user and returns its id and a bearer token.
func (a *testApp) login(t *testing.T, email string) (models.User, string) {
	t.Helper()
	u, err := a.auth.Register(context.Background(), auth.RegisterInput{
		Username: "user", Email: email, Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	token, err := a.auth.IssueToken(u)
	require.NoError(t, err)
	return u, token
}

func (a *testApp) product(t *testing.T, seller models.User, title string, price float64) models.Product {
	t.Helper()
	p, err := a.catalog.CreateProduct(context.Background(), seller.ID, catalog.ProductInput{
		Title: title, Price: price, Quantity: 10, Images: []string{title + ".jpg"},
	})
	require.NoError(t, err)
	return p
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCartToOrderOverHTTP(t *testing.T) {
	app := newTestApp(t)
	seller, _ := app.login(t, "seller@example.com")
	_, token := app.login(t, "buyer@example.com")
	pen := app.product(t, seller, "pen", 10)
	cup := app.product(t, seller, "cup", 5)

	rec := app.do(t, http.MethodPost, "/cart/updateCart", token, gin.H{"productId": pen.ID.Hex(), "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, "/cart/updateCart", token, gin.H{"productId": cup.ID.Hex(), "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/cart/getCart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Equal(t, 25.0, view["totalPrice"])
	assert.Len(t, view["products"], 2)

	rec = app.do(t, http.MethodPost, "/orders/createOrder", token, nil, idempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "Order created successfully", created["message"])
	order := created["order"].(map[string]interface{})
	assert.Equal(t, 25.0, order["totalAmount"])
	assert.Equal(t, "pending", order["status"])
	assert.EqualValues(t, 2, order["itemCount"])

	rec = app.do(t, http.MethodGet, "/cart/getCart", token, nil)
	view = decode(t, rec)
	assert.Empty(t, view["products"])
	assert.Equal(t, 0.0, view["totalPrice"])

	rec = app.do(t, http.MethodPost, "/orders/createOrder", token, nil, idempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replayed := decode(t, rec)["order"].(map[string]interface{})
	assert.Equal(t, order["orderId"], replayed["orderId"])

	rec = app.do(t, http.MethodGet, "/orders/getOrders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode(t, rec)
	assert.EqualValues(t, 1, listed["totalOrders"])
}

func TestCreateOrderWithEmptyCart(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "buyer@example.com")

	rec := app.do(t, http.MethodPost, "/orders/createOrder", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart is empty", decode(t, rec)["message"])

	rec = app.do(t, http.MethodGet, "/orders/getOrders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "No orders found", body["message"])
	assert.Empty(t, body["orders"])
}

func TestUpdateCartValidation(t *testing.T) {
	app := newTestApp(t)
	seller, _ := app.login(t, "seller@example.com")
	_, token := app.login(t, "buyer@example.com")
	pen := app.product(t, seller, "pen", 10)

	rec := app.do(t, http.MethodPost, "/cart/updateCart", token, gin.H{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "productId is required", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/cart/updateCart", token, gin.H{"productId": pen.ID.Hex(), "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be a positive integer", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/cart/updateCart", token, gin.H{"productId": "not-an-id", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodDelete, "/cart/empty", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cart not found", decode(t, rec)["message"])
}

func TestMutatingRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/cart/getCart", "/orders/getOrders"} {
		rec := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := app.do(t, http.MethodPost, "/orders/createOrder", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid", decode(t, rec)["message"])
}

func TestRegisterAndLoginOverHTTP(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "ali", "email": "ali@example.com", "password": "secret1", "confirmPassword": "other12",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "ali", "email": "ali@example.com", "password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode(t, rec)
	assert.NotContains(t, registered, "password")

	rec = app.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ali@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Wrong password", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "ali@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.Equal(t, registered["_id"], body["_id"])

	token := body["accessToken"].(string)
	other, _ := app.login(t, "other@example.com")
	rec = app.do(t, http.MethodPut, "/users/"+other.ID.Hex(), token, gin.H{"username": "mallory"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProductsOverHTTP(t *testing.T) {
	app := newTestApp(t)
	seller, token := app.login(t, "seller@example.com")
	_, stranger := app.login(t, "stranger@example.com")

	rec := app.do(t, http.MethodPost, "/category/addCategories", token, gin.H{"names": []string{" books ", "", "music"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cats := decode(t, rec)["categories"].([]interface{})
	require.Len(t, cats, 2)
	booksID := cats[0].(map[string]interface{})["_id"].(string)

	rec = app.do(t, http.MethodPost, "/products", token, gin.H{
		"title": "novel", "price": 12.5, "quantity": 3, "category": booksID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["_id"].(string)
	assert.Equal(t, seller.ID.Hex(), created["seller"])
	assert.Equal(t, []interface{}{booksID}, created["category"])

	rec = app.do(t, http.MethodGet, "/products?category="+booksID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode(t, rec)
	assert.EqualValues(t, 1, listed["totalProducts"])
	assert.EqualValues(t, 1, listed["totalPages"])

	rec = app.do(t, http.MethodGet, "/products?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, "/products/"+id, stranger, gin.H{"price": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only modify your own products", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/products/"+id+"/reviews", stranger, gin.H{"rating": 7, "comment": "meh"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Rating must be between 1 and 5", decode(t, rec)["message"])

	rec = app.do(t, http.MethodPost, "/products/"+id+"/reviews", stranger, gin.H{"rating": 4, "comment": "good read"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/products/"+id+"/reconcile", stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/products/"+id+"/reconcile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodDelete, "/products/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/products?category="+booksID, "", nil)
	assert.EqualValues(t, 0, decode(t, rec)["totalProducts"])
}

func TestBazaarBulkAddOverHTTP(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "admin@example.com")

	rec := app.do(t, http.MethodPost, "/bazaar", token, gin.H{"name": "Spring Fair"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bazaarID := decode(t, rec)["_id"].(string)

	rec = app.do(t, http.MethodPost, "/bazaar/categories/add", token, gin.H{"categories": []interface{}{
		gin.H{"name": "crafts", "brandsNames": "a,b", "images": []string{"x.jpg"}, "bazaar": bazaarID},
		gin.H{"name": "broken", "brandsNames": "c", "images": "not-a-list"},
		gin.H{"name": "loose", "brandsNames": "d", "images": []string{}},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["categories"], 2)

	rec = app.do(t, http.MethodPost, "/bazaar/categories/add", token, gin.H{"categories": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide an array of categories", decode(t, rec)["message"])

	rec = app.do(t, http.MethodGet, "/bazaar/categories/all?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode(t, rec)
	assert.EqualValues(t, 2, all["totalCategories"])
	assert.EqualValues(t, 2, all["totalPages"])

	rec = app.do(t, http.MethodGet, "/bazaar", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	bazaars := list["bazaars"].([]interface{})
	require.Len(t, bazaars, 1)
	assert.Len(t, bazaars[0].(map[string]interface{})["categories"], 1)

	rec = app.do(t, http.MethodPost, "/bazaar", token, gin.H{"name": "Bad", "categoriesIds": "000000000000000000000000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Some category IDs are invalid", decode(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
