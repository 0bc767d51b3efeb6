package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RetailPe/retailpe-backend/internal/handlers"
	"github.com/RetailPe/retailpe-backend/internal/routes"
	"github.com/RetailPe/retailpe-backend/internal/services"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

type apiFixture struct {
	app   *fiber.App
	store storage.Store
	token string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := storage.NewMemoryStore()
	sales := services.NewSaleService(store)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	routes.SetupRoutes(app, routes.Deps{
		Store:     store,
		Sales:     sales,
		Webhooks:  handlers.NewWebhookHandler("verify-me", nil, nil),
		Health:    handlers.NewHealthHandler("test", nil),
		SecretKey: "test-secret",
		DevMode:   false,
	})

	f := &apiFixture{app: app, store: store}
	f.register(t, "Raghav", "919876543210", "secret123")
	f.token = f.login(t, "919876543210", "secret123")
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, auth bool) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (f *apiFixture) register(t *testing.T, name, phone, password string) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"name": name, "whatsapp_number": phone, "password": password,
	}, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (f *apiFixture) login(t *testing.T, phone, password string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
		"whatsapp_number": phone, "password": password,
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(t, resp, &body)
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (f *apiFixture) createItem(t *testing.T, name string, quantity int, price float64) uint {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/items/", fiber.Map{
		"name": name, "quantity": quantity, "price": price,
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item struct {
		ID uint `json:"ID"`
	}
	decode(t, resp, &item)
	return item.ID
}

func TestAuthFlow(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/auth/me", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Name string `json:"name"`
	}
	decode(t, resp, &me)
	assert.Equal(t, "Raghav", me.Name)

	// Missing token
	resp = f.do(t, http.MethodGet, "/api/auth/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Duplicate phone
	resp = f.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"name": "Other", "whatsapp_number": "919876543210", "password": "secret123",
	}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Wrong password
	resp = f.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
		"whatsapp_number": "919876543210", "password": "nope",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestItemCRUD(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createItem(t, "Natraj Pencils", 100, 5)

	resp := f.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d", id), nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Duplicate name
	resp = f.do(t, http.MethodPost, "/api/items/", fiber.Map{
		"name": "natraj pencils", "quantity": 1, "price": 2,
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Update price
	resp = f.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", id), fiber.Map{"price": 6.5}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Price float64 `json:"price"`
	}
	decode(t, resp, &updated)
	assert.InDelta(t, 6.5, updated.Price, 0.001)

	// Case-insensitive search
	resp = f.do(t, http.MethodGet, "/api/items/search/natraj%20pencils", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Soft delete hides the item from name lookup
	resp = f.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", id), nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/items/search/natraj%20pencils", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemStockOperations(t *testing.T) {
	f := newAPIFixture(t)
	id := f.createItem(t, "Pencils", 10, 5)
	path := fmt.Sprintf("/api/items/%d/stock", id)

	var item struct {
		Quantity int `json:"quantity"`
	}

	resp := f.do(t, http.MethodPatch, path, fiber.Map{"operation": "add", "quantity": 5}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &item)
	assert.Equal(t, 15, item.Quantity)

	resp = f.do(t, http.MethodPatch, path, fiber.Map{"operation": "subtract", "quantity": 3}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &item)
	assert.Equal(t, 12, item.Quantity)

	// Underflow is rejected, not clamped
	resp = f.do(t, http.MethodPatch, path, fiber.Map{"operation": "subtract", "quantity": 100}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, path, fiber.Map{"operation": "set", "quantity": 0}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &item)
	assert.Equal(t, 0, item.Quantity)

	resp = f.do(t, http.MethodPatch, path, fiber.Map{"operation": "double", "quantity": 1}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaleLifecycleOverAPI(t *testing.T) {
	f := newAPIFixture(t)
	f.createItem(t, "Pencils", 10, 5)

	// Total mismatch is rejected before anything is persisted.
	resp := f.do(t, http.MethodPost, "/api/sales/", fiber.Map{
		"customer_name": "Raghav",
		"items":         []fiber.Map{{"item_name": "Pencils", "quantity": 2}},
		"total_amount":  99.0,
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/sales/", fiber.Map{
		"customer_name": "Raghav",
		"items":         []fiber.Map{{"item_name": "Pencils", "quantity": 2}},
		"total_amount":  10.0,
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sale struct {
		ID     uint   `json:"ID"`
		Status string `json:"status"`
	}
	decode(t, resp, &sale)
	assert.Equal(t, "pending", sale.Status)

	// Pending listing sees it
	resp = f.do(t, http.MethodGet, "/api/sales/pending", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []json.RawMessage
	decode(t, resp, &pending)
	assert.Len(t, pending, 1)

	// Confirm decrements stock
	statusPath := fmt.Sprintf("/api/sales/%d/status", sale.ID)
	resp = f.do(t, http.MethodPatch, statusPath, fiber.Map{"status": "success"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	item, err := f.store.GetItemByName("Pencils")
	require.NoError(t, err)
	assert.Equal(t, 8, item.Quantity)

	// A second transition conflicts
	resp = f.do(t, http.MethodPatch, statusPath, fiber.Map{"status": "failed"}, true)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Stats reflect the outcome
	resp = f.do(t, http.MethodGet, "/api/sales/stats", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		TotalSales      int64   `json:"total_sales"`
		SuccessfulSales int64   `json:"successful_sales"`
		TotalRevenue    float64 `json:"total_revenue"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, int64(1), stats.TotalSales)
	assert.Equal(t, int64(1), stats.SuccessfulSales)
	assert.InDelta(t, 10.0, stats.TotalRevenue, 0.001)
}

func TestCreateSaleFromWhatsApp(t *testing.T) {
	f := newAPIFixture(t)
	f.createItem(t, "Pencils", 10, 5)

	resp := f.do(t, http.MethodPost, "/api/sales/whatsapp", fiber.Map{
		"retailer_phone": "919876543210",
		"customer_name":  "Meera",
		"items":          []fiber.Map{{"item_name": "Pencils", "quantity": 2}},
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sale struct {
		RetailerPhone string `json:"retailer_phone"`
		Status        string `json:"status"`
	}
	decode(t, resp, &sale)
	assert.Equal(t, "919876543210", sale.RetailerPhone)
	assert.Equal(t, "pending", sale.Status)

	// Unregistered phone
	resp = f.do(t, http.MethodPost, "/api/sales/whatsapp", fiber.Map{
		"retailer_phone": "910000000000",
		"customer_name":  "Meera",
		"items":          []fiber.Map{{"item_name": "Pencils", "quantity": 2}},
	}, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaleUnknownItemOverAPI(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/sales/", fiber.Map{
		"customer_name": "Raghav",
		"items":         []fiber.Map{{"item_name": "Erasers", "quantity": 1}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
