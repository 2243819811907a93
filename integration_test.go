package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRouter builds the real application router with a test configuration
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.SetConfig(&config.Config{
		DatabaseURL: "test",
		Port:        "8080",
		GoEnv:       "test",
	})
	return setupRouter()
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Garage Flow API is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	router := newTestRouter()

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, _ := http.NewRequest(method, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, method+" should not be allowed")
	}
}

// TestAPIV1Prefix tests that the endpoint requires /api/v1 prefix
func TestAPIV1Prefix(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "Endpoint should require /api/v1 prefix")

	req, _ = http.NewRequest("GET", "/api/v1/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "Endpoint should work with /api/v1 prefix")
}

// TestProtectedRoutesRequireToken verifies the JWT middleware guards the API surface
func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter()

	protected := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/users/me"},
		{"GET", "/api/v1/technicians"},
		{"GET", "/api/v1/stages/1"},
		{"POST", "/api/v1/stages/1/start"},
		{"GET", "/api/v1/work-orders"},
		{"POST", "/api/v1/invoices"},
		{"GET", "/api/v1/reports/work-orders.xlsx"},
	}

	for _, route := range protected {
		req, _ := http.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code,
			route.method+" "+route.path+" should require a token")

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, false, response["success"])
	}
}

// TestHealthEndpointHeaders tests that proper headers are set
func TestHealthEndpointHeaders(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

// TestSeedRevertReasons verifies the default catalog is inserted exactly once
func TestSeedRevertReasons(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.RevertReason{}))
	config.SetDB(db)

	assert.NoError(t, seedRevertReasons())

	var count int64
	db.Model(&models.RevertReason{}).Count(&count)
	assert.Equal(t, int64(5), count)

	// Seeding again is a no-op
	assert.NoError(t, seedRevertReasons())
	db.Model(&models.RevertReason{}).Count(&count)
	assert.Equal(t, int64(5), count)

	var reason models.RevertReason
	db.Where("label = ?", "Paint defect").First(&reason)
	assert.True(t, reason.Active)
}
