package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func InitRoutesTests(t *testing.T) (*gin.Engine, *repositories.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)

	store := repositories.NewMemoryStore()
	hash, err := services.HashPassword("password123")
	require.NoError(t, err)
	store.SeedUser(models.User{GymID: 1, Username: "manager", PasswordHash: hash, Role: RoleManager, IsActive: true})
	store.SeedUser(models.User{GymID: 1, Username: "desk", PasswordHash: hash, Role: RoleStaff, IsActive: true})

	tokens, err := utils.NewTokenManager("router-test-secret", time.Minute)
	require.NoError(t, err)

	engine := gin.New()
	Setup(engine, Dependencies{Store: store, Tokens: tokens, BusinessLocation: time.UTC, SaleNumberMaxAttempts: 3})
	return engine, store
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
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
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w.Code, decoded
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	status, body := call(t, r, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, status, body)
	return body["access_token"].(string)
}

// TestSalesFullFlow walks login -> create -> movements -> delete through the real routes.
func TestSalesFullFlow(t *testing.T) {
	r, store := InitRoutesTests(t)
	stock := 10
	p := store.SeedProduct(models.Product{
		GymID: 1, Name: "Shaker", Price: decimal.RequireFromString("5.00"),
		Status: models.ProductActive, TrackingMode: models.TrackingTracked, Stock: &stock,
	})

	managerToken := login(t, r, "manager")
	deskToken := login(t, r, "desk")
	var salePath string

	t.Run("GET_Me", func(t *testing.T) {
		status, body := call(t, r, http.MethodGet, "/api/v1/auth/me", deskToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "desk", body["username"])
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("POST_CreateSale", func(t *testing.T) {
		status, body := call(t, r, http.MethodPost, "/api/v1/sales", deskToken, map[string]interface{}{
			"items": []map[string]interface{}{{"product_id": p.ID, "quantity": 3, "unit_price": "5.00"}},
		})
		require.Equal(t, http.StatusCreated, status, body)
		assert.Len(t, body["sale_number"], 12)
		salePath = fmt.Sprintf("/api/v1/sales/%d", int64(body["id"].(float64)))
	})
	require.NotEmpty(t, salePath, "sale was not created")

	t.Run("GET_InventoryMovements", func(t *testing.T) {
		status, _ := call(t, r, http.MethodGet, "/api/v1/inventory-movements", deskToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, body := call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/inventory-movements?product_id=%d", p.ID), managerToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("DELETE_Sale", func(t *testing.T) {
		status, _ := call(t, r, http.MethodDelete, salePath, deskToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, body := call(t, r, http.MethodDelete, salePath, managerToken, nil)
		require.Equal(t, http.StatusOK, status, body)

		got, _ := store.Product(p.ID)
		assert.Equal(t, 10, *got.Stock)

		status, _ = call(t, r, http.MethodGet, salePath, deskToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestRoutesRequireToken(t *testing.T) {
	r, _ := InitRoutesTests(t)

	for _, path := range []string{"/api/v1/sales", "/api/v1/auth/me", "/api/v1/inventory-movements"} {
		status, _ := call(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, _ := call(t, r, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "desk", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthz(t *testing.T) {
	r, _ := InitRoutesTests(t)

	status, body := call(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
