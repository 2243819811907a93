package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/stretchr/testify/assert"
)

func TestCreateCustomerAndAddVehicle(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)

	router := setupTestRouter()
	auth := mockAuthMiddleware(advisor.Auth0ID, advisor.Role, "token")
	router.POST("/customers", auth, CreateCustomer)
	router.POST("/customers/:id/vehicles", auth, AddVehicle)

	do := func(path string, body map[string]interface{}) (int, map[string]interface{}) {
		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	var customerID float64

	t.Run("create a customer", func(t *testing.T) {
		code, response := do("/customers", map[string]interface{}{
			"name":  "Joan Park",
			"phone": "555-0101",
			"email": "joan@example.com",
		})

		assert.Equal(t, http.StatusCreated, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "Joan Park", data["name"])
		customerID = data["id"].(float64)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		code, response := do("/customers", map[string]interface{}{"phone": "555-0102"})
		assert.Equal(t, http.StatusBadRequest, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errorData["code"])
	})

	t.Run("register a vehicle", func(t *testing.T) {
		code, response := do(fmt.Sprintf("/customers/%.0f/vehicles", customerID), map[string]interface{}{
			"make":  "Toyota",
			"model": "Corolla",
			"year":  2019,
			"plate": "ABC-123",
		})

		assert.Equal(t, http.StatusCreated, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "ABC-123", data["plate"])
		assert.Equal(t, customerID, data["customer_id"])
	})

	t.Run("duplicate plate", func(t *testing.T) {
		code, response := do(fmt.Sprintf("/customers/%.0f/vehicles", customerID), map[string]interface{}{
			"make":  "Honda",
			"model": "Civic",
			"plate": "ABC-123",
		})

		assert.Equal(t, http.StatusConflict, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "PLATE_EXISTS", errorData["code"])
	})

	t.Run("unknown customer", func(t *testing.T) {
		code, response := do("/customers/9999/vehicles", map[string]interface{}{
			"make":  "Ford",
			"model": "Focus",
			"plate": "ZZZ-999",
		})

		assert.Equal(t, http.StatusNotFound, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "CUSTOMER_NOT_FOUND", errorData["code"])
	})
}

func TestListCustomersSearch(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)

	joan := models.Customer{Name: "Joan Park", Phone: "555-0101"}
	db.Create(&joan)
	db.Create(&models.Vehicle{CustomerID: joan.ID, Make: "Toyota", Model: "Corolla", Plate: "ABC-123"})

	sam := models.Customer{Name: "Sam Vee", Phone: "555-9999"}
	db.Create(&sam)
	db.Create(&models.Vehicle{CustomerID: sam.ID, Make: "Honda", Model: "Civic", Plate: "XYZ-789"})

	router := setupTestRouter()
	router.GET("/customers", mockAuthMiddleware(advisor.Auth0ID, advisor.Role, "token"), ListCustomers)

	search := func(query string) []interface{} {
		req, _ := http.NewRequest(http.MethodGet, "/customers"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response["data"].([]interface{})
	}

	t.Run("no filter returns everyone with vehicles loaded", func(t *testing.T) {
		data := search("")
		assert.Len(t, data, 2)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Joan Park", first["name"])
		vehicles := first["vehicles"].([]interface{})
		assert.Len(t, vehicles, 1)
	})

	t.Run("search by name", func(t *testing.T) {
		data := search("?search=Sam")
		assert.Len(t, data, 1)
		assert.Equal(t, "Sam Vee", data[0].(map[string]interface{})["name"])
	})

	t.Run("search by phone", func(t *testing.T) {
		data := search("?search=0101")
		assert.Len(t, data, 1)
		assert.Equal(t, "Joan Park", data[0].(map[string]interface{})["name"])
	})

	t.Run("search by plate", func(t *testing.T) {
		data := search("?search=XYZ")
		assert.Len(t, data, 1)
		assert.Equal(t, "Sam Vee", data[0].(map[string]interface{})["name"])
	})

	t.Run("no matches", func(t *testing.T) {
		data := search("?search=nothing")
		assert.Empty(t, data)
	})
}
