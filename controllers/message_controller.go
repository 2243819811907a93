package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
)

// SendMessageRequest represents the request body for posting a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage handles POST /api/v1/work-orders/:id/messages - posts a message
// on a work order's thread. Advisors and managers can post on any work order;
// technicians only on work orders where they hold a stage assignment.
func SendMessage(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var workOrder models.WorkOrder
	if err := db.First(&workOrder, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "WORK_ORDER_NOT_FOUND",
				"message": "Work order not found",
			},
		})
		return
	}

	if !canAccessWorkOrderThread(user, workOrder.ID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to message on this work order",
			},
		})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	message := models.Message{
		WorkOrderID: workOrder.ID,
		SenderID:    user.ID,
		Text:        req.Text,
	}

	if err := db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create message",
			},
		})
		return
	}

	if err := db.Preload("Sender").First(&message, message.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load message details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/v1/work-orders/:id/messages
func ListMessages(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var workOrder models.WorkOrder
	if err := db.First(&workOrder, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "WORK_ORDER_NOT_FOUND",
				"message": "Work order not found",
			},
		})
		return
	}

	if !canAccessWorkOrderThread(user, workOrder.ID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view messages on this work order",
			},
		})
		return
	}

	var messages []models.Message
	err := db.Where("work_order_id = ?", workOrder.ID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

func canAccessWorkOrderThread(user *models.User, workOrderID uint) bool {
	switch user.Role {
	case models.RoleAdvisor, models.RoleManager:
		return true
	case models.RoleTechnician:
		db := config.GetDB()
		var count int64
		db.Model(&models.Stage{}).
			Where("work_order_id = ? AND assigned_technician_id = ?", workOrderID, user.ID).
			Count(&count)
		return count > 0
	}
	return false
}
