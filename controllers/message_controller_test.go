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

func TestSendMessage(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)
	assigned := createStaffUser(t, db, "auth0|painter", "Marco Diaz", models.RoleTechnician)
	outsider := createStaffUser(t, db, "auth0|other", "Lena Park", models.RoleTechnician)

	workOrder, stages := createTestWorkOrder(t, db, 2)
	db.Model(&stages[0]).Update("assigned_technician_id", assigned.ID)

	tests := []struct {
		name           string
		auth0ID        string
		role           string
		workOrderID    string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		expectedSender string
	}{
		{
			name:           "Advisor posts on any work order",
			auth0ID:        advisor.Auth0ID,
			role:           advisor.Role,
			workOrderID:    fmt.Sprintf("%d", workOrder.ID),
			requestBody:    map[string]interface{}{"text": "Customer approved the extra paint work"},
			expectedStatus: http.StatusCreated,
			expectedSender: "Nina Ortiz",
		},
		{
			name:           "Assigned technician posts",
			auth0ID:        assigned.Auth0ID,
			role:           assigned.Role,
			workOrderID:    fmt.Sprintf("%d", workOrder.ID),
			requestBody:    map[string]interface{}{"text": "Primer is drying, back on it after lunch"},
			expectedStatus: http.StatusCreated,
			expectedSender: "Marco Diaz",
		},
		{
			name:           "Unassigned technician is forbidden",
			auth0ID:        outsider.Auth0ID,
			role:           outsider.Role,
			workOrderID:    fmt.Sprintf("%d", workOrder.ID),
			requestBody:    map[string]interface{}{"text": "Can I pick this one up?"},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Missing text",
			auth0ID:        advisor.Auth0ID,
			role:           advisor.Role,
			workOrderID:    fmt.Sprintf("%d", workOrder.ID),
			requestBody:    map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Unknown work order",
			auth0ID:        advisor.Auth0ID,
			role:           advisor.Role,
			workOrderID:    "9999",
			requestBody:    map[string]interface{}{"text": "Hello?"},
			expectedStatus: http.StatusNotFound,
			expectedError:  "WORK_ORDER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/work-orders/:id/messages", mockAuthMiddleware(tt.auth0ID, tt.role, "token"), SendMessage)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/work-orders/"+tt.workOrderID+"/messages", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			if tt.expectedError != "" {
				assert.Equal(t, false, response["success"])
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			} else {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, tt.requestBody["text"], data["text"])
				sender := data["sender"].(map[string]interface{})
				assert.Equal(t, tt.expectedSender, sender["name"])
			}
		})
	}
}

func TestListMessages(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	advisor := createStaffUser(t, db, "auth0|advisor", "Nina Ortiz", models.RoleAdvisor)
	assigned := createStaffUser(t, db, "auth0|painter", "Marco Diaz", models.RoleTechnician)
	outsider := createStaffUser(t, db, "auth0|other", "Lena Park", models.RoleTechnician)

	workOrder, stages := createTestWorkOrder(t, db, 2)
	db.Model(&stages[0]).Update("assigned_technician_id", assigned.ID)

	db.Create(&models.Message{WorkOrderID: workOrder.ID, SenderID: advisor.ID, Text: "Parts arrived this morning"})
	db.Create(&models.Message{WorkOrderID: workOrder.ID, SenderID: assigned.ID, Text: "Starting disassembly now"})

	list := func(auth0ID, role, workOrderID string) (int, map[string]interface{}) {
		router := setupTestRouter()
		router.GET("/work-orders/:id/messages", mockAuthMiddleware(auth0ID, role, "token"), ListMessages)

		req, _ := http.NewRequest(http.MethodGet, "/work-orders/"+workOrderID+"/messages", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	t.Run("returns the thread in chronological order with senders", func(t *testing.T) {
		code, response := list(advisor.Auth0ID, advisor.Role, fmt.Sprintf("%d", workOrder.ID))
		assert.Equal(t, http.StatusOK, code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 2)

		first := data[0].(map[string]interface{})
		assert.Equal(t, "Parts arrived this morning", first["text"])
		assert.Equal(t, "Nina Ortiz", first["sender"].(map[string]interface{})["name"])

		second := data[1].(map[string]interface{})
		assert.Equal(t, "Starting disassembly now", second["text"])
		assert.Equal(t, "Marco Diaz", second["sender"].(map[string]interface{})["name"])
	})

	t.Run("assigned technician can read the thread", func(t *testing.T) {
		code, response := list(assigned.Auth0ID, assigned.Role, fmt.Sprintf("%d", workOrder.ID))
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, response["data"].([]interface{}), 2)
	})

	t.Run("unassigned technician is forbidden", func(t *testing.T) {
		code, response := list(outsider.Auth0ID, outsider.Role, fmt.Sprintf("%d", workOrder.ID))
		assert.Equal(t, http.StatusForbidden, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "FORBIDDEN", errorData["code"])
	})

	t.Run("empty thread", func(t *testing.T) {
		other, _ := createTestWorkOrder(t, db, 1)
		code, response := list(advisor.Auth0ID, advisor.Role, fmt.Sprintf("%d", other.ID))
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, response["data"].([]interface{}))
	})

	t.Run("unknown work order", func(t *testing.T) {
		code, response := list(advisor.Auth0ID, advisor.Role, "9999")
		assert.Equal(t, http.StatusNotFound, code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "WORK_ORDER_NOT_FOUND", errorData["code"])
	})
}
