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
	"gorm.io/gorm"
)

func createCustomerWithVehicle(t *testing.T, db *gorm.DB, plate string) (models.Customer, models.Vehicle) {
	customer := models.Customer{Name: "Joan Park", Phone: "555-0101"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}
	vehicle := models.Vehicle{
		CustomerID: customer.ID,
		Make:       "Toyota",
		Model:      "Corolla",
		Year:       2019,
		Plate:      plate,
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("Failed to create vehicle: %v", err)
	}
	return customer, vehicle
}

func createPaintVariation(t *testing.T, db *gorm.DB) models.Variation {
	variation := models.Variation{Name: "Full respray", Active: true}
	for i, name := range []string{"Disassembly", "Paint", "Assembly"} {
		variation.Stages = append(variation.Stages, models.VariationStage{
			Name:     name,
			Position: i + 1,
		})
	}
	if err := db.Create(&variation).Error; err != nil {
		t.Fatalf("Failed to create variation: %v", err)
	}
	return variation
}

func TestCreateInvoice(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)
	customer, vehicle := createCustomerWithVehicle(t, db, "ABC-123")
	variation := createPaintVariation(t, db)

	router := setupTestRouter()
	router.POST("/invoices", mockAuthMiddleware(advisor.Auth0ID, advisor.Role, "token"), CreateInvoice)

	postInvoice := func(body map[string]interface{}) (int, map[string]interface{}) {
		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/invoices", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	t.Run("invoice with lines and a work order from the template", func(t *testing.T) {
		code, response := postInvoice(map[string]interface{}{
			"customer_id":  customer.ID,
			"vehicle_id":   vehicle.ID,
			"variation_id": variation.ID,
			"lines": []map[string]interface{}{
				{"description": "Full respray", "quantity": 1, "unit_price": 1200.0},
				{"description": "Replacement trim", "quantity": 2, "unit_price": 45.5},
			},
		})

		assert.Equal(t, http.StatusCreated, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "draft", data["status"])
		assert.Equal(t, false, data["locked"])
		assert.Equal(t, 1291.0, data["total"])

		lines := data["lines"].([]interface{})
		assert.Len(t, lines, 2)

		// The work order was instantiated from the variation template, in order
		workOrder := data["work_order"].(map[string]interface{})
		assert.Equal(t, "open", workOrder["status"])
		stages := workOrder["stages"].([]interface{})
		assert.Len(t, stages, 3)
		first := stages[0].(map[string]interface{})
		assert.Equal(t, "Disassembly", first["name"])
		assert.Equal(t, float64(1), first["position"])
		assert.Equal(t, "not_started", first["status"])
	})

	t.Run("invoice without a variation has no work order", func(t *testing.T) {
		_, vehicle2 := createCustomerWithVehicle(t, db, "XYZ-789")
		var owner models.Vehicle
		db.First(&owner, vehicle2.ID)

		code, response := postInvoice(map[string]interface{}{
			"customer_id": owner.CustomerID,
			"vehicle_id":  owner.ID,
			"lines": []map[string]interface{}{
				{"description": "Oil change", "quantity": 1, "unit_price": 80.0},
			},
		})

		assert.Equal(t, http.StatusCreated, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, 80.0, data["total"])
		assert.Nil(t, data["work_order"])
	})

	t.Run("vehicle must belong to the customer", func(t *testing.T) {
		other := models.Customer{Name: "Sam Vee"}
		db.Create(&other)

		code, response := postInvoice(map[string]interface{}{
			"customer_id": other.ID,
			"vehicle_id":  vehicle.ID,
		})

		assert.Equal(t, http.StatusNotFound, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VEHICLE_NOT_FOUND", errorData["code"])
	})

	t.Run("unknown variation", func(t *testing.T) {
		code, response := postInvoice(map[string]interface{}{
			"customer_id":  customer.ID,
			"vehicle_id":   vehicle.ID,
			"variation_id": 9999,
		})

		assert.Equal(t, http.StatusNotFound, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "VARIATION_NOT_FOUND", errorData["code"])
	})
}

func TestLockInvoiceAndCaseWorkflow(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)
	manager := createStaffUser(t, db, "auth0|manager", "Rita Vale", models.RoleManager)
	customer, vehicle := createCustomerWithVehicle(t, db, "ABC-123")

	invoice := models.Invoice{
		CustomerID: customer.ID,
		VehicleID:  vehicle.ID,
		Status:     models.InvoiceStatusDraft,
		Total:      500,
	}
	db.Create(&invoice)

	router := setupTestRouter()
	advisorAuth := mockAuthMiddleware(advisor.Auth0ID, advisor.Role, "token")
	managerAuth := mockAuthMiddleware(manager.Auth0ID, manager.Role, "token")
	router.POST("/invoices/:id/lock", advisorAuth, LockInvoice)
	router.POST("/invoices/:id/cases", advisorAuth, OpenCase)
	router.GET("/cases", advisorAuth, ListCases)

	do := func(method, path string, body map[string]interface{}) (int, map[string]interface{}) {
		var buf bytes.Buffer
		if body != nil {
			raw, _ := json.Marshal(body)
			buf.Write(raw)
		}
		req, _ := http.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	t.Run("cases cannot target an unlocked invoice", func(t *testing.T) {
		code, response := do(http.MethodPost, fmt.Sprintf("/invoices/%d/cases", invoice.ID),
			map[string]interface{}{"reason": "price disputed"})

		assert.Equal(t, http.StatusConflict, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVOICE_NOT_LOCKED", errorData["code"])
	})

	t.Run("lock the invoice", func(t *testing.T) {
		code, response := do(http.MethodPost, fmt.Sprintf("/invoices/%d/lock", invoice.ID), nil)
		assert.Equal(t, http.StatusOK, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, true, data["locked"])
	})

	t.Run("locking twice is a conflict", func(t *testing.T) {
		code, response := do(http.MethodPost, fmt.Sprintf("/invoices/%d/lock", invoice.ID), nil)
		assert.Equal(t, http.StatusConflict, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVOICE_LOCKED", errorData["code"])
	})

	var caseID float64

	t.Run("open a case against the locked invoice", func(t *testing.T) {
		code, response := do(http.MethodPost, fmt.Sprintf("/invoices/%d/cases", invoice.ID),
			map[string]interface{}{"reason": "customer disputes the trim charge"})

		assert.Equal(t, http.StatusCreated, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "open", data["status"])
		assert.Equal(t, "customer disputes the trim charge", data["reason"])
		assert.NotEmpty(t, data["number"])
		assert.Equal(t, float64(advisor.ID), data["opened_by_id"])
		caseID = data["id"].(float64)
	})

	t.Run("one open case per invoice", func(t *testing.T) {
		code, response := do(http.MethodPost, fmt.Sprintf("/invoices/%d/cases", invoice.ID),
			map[string]interface{}{"reason": "second dispute"})

		assert.Equal(t, http.StatusConflict, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "CASE_ALREADY_OPEN", errorData["code"])
	})

	t.Run("list cases filtered by status", func(t *testing.T) {
		code, response := do(http.MethodGet, "/cases?status=open", nil)
		assert.Equal(t, http.StatusOK, code)
		data := response["data"].([]interface{})
		assert.Len(t, data, 1)

		code, response = do(http.MethodGet, "/cases?status=approved", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, response["data"])
	})

	t.Run("advisors cannot resolve cases", func(t *testing.T) {
		resolveRouter := setupTestRouter()
		resolveRouter.POST("/cases/:id/resolve", advisorAuth, ResolveCase)

		raw, _ := json.Marshal(map[string]interface{}{"approve": true})
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/cases/%.0f/resolve", caseID), bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		resolveRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("manager approval resolves the case and unlocks the invoice", func(t *testing.T) {
		resolveRouter := setupTestRouter()
		resolveRouter.POST("/cases/:id/resolve", managerAuth, ResolveCase)

		raw, _ := json.Marshal(map[string]interface{}{"approve": true, "notes": "trim charge removed"})
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/cases/%.0f/resolve", caseID), bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		resolveRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "approved", data["status"])
		assert.Equal(t, "trim charge removed", data["resolution_notes"])
		assert.Equal(t, float64(manager.ID), data["resolved_by_id"])

		var unlocked models.Invoice
		db.First(&unlocked, invoice.ID)
		assert.False(t, unlocked.Locked)
	})

	t.Run("resolving twice is a conflict", func(t *testing.T) {
		resolveRouter := setupTestRouter()
		resolveRouter.POST("/cases/:id/resolve", managerAuth, ResolveCase)

		raw, _ := json.Marshal(map[string]interface{}{"approve": false})
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/cases/%.0f/resolve", caseID), bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		resolveRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "CASE_ALREADY_RESOLVED", errorData["code"])
	})
}

func TestInvoiceStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)
	customer, vehicle := createCustomerWithVehicle(t, db, "ABC-123")

	invoice := models.Invoice{
		CustomerID: customer.ID,
		VehicleID:  vehicle.ID,
		Status:     models.InvoiceStatusDraft,
	}
	db.Create(&invoice)

	router := setupTestRouter()
	auth := mockAuthMiddleware(advisor.Auth0ID, advisor.Role, "token")
	router.POST("/invoices/:id/issue", auth, IssueInvoice)
	router.POST("/invoices/:id/pay", auth, PayInvoice)

	post := func(path string) (int, map[string]interface{}) {
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	t.Run("paying a draft is a conflict", func(t *testing.T) {
		code, response := post(fmt.Sprintf("/invoices/%d/pay", invoice.ID))
		assert.Equal(t, http.StatusConflict, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_TRANSITION", errorData["code"])
		assert.Equal(t, "draft", errorData["current_status"])
	})

	t.Run("issue the invoice", func(t *testing.T) {
		code, response := post(fmt.Sprintf("/invoices/%d/issue", invoice.ID))
		assert.Equal(t, http.StatusOK, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "issued", data["status"])
	})

	t.Run("issuing twice is a conflict", func(t *testing.T) {
		code, _ := post(fmt.Sprintf("/invoices/%d/issue", invoice.ID))
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("pay the invoice", func(t *testing.T) {
		code, response := post(fmt.Sprintf("/invoices/%d/pay", invoice.ID))
		assert.Equal(t, http.StatusOK, code)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "paid", data["status"])
	})

	t.Run("unknown invoice", func(t *testing.T) {
		code, response := post("/invoices/9999/issue")
		assert.Equal(t, http.StatusNotFound, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVOICE_NOT_FOUND", errorData["code"])
	})
}
