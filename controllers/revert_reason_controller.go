package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
)

// CreateRevertReasonRequest is the request body for adding a catalog entry
type CreateRevertReasonRequest struct {
	Label string `json:"label" binding:"required"`
}

// ListRevertReasons handles GET /api/v1/revert-reasons - returns the active
// revert reason catalog. The client pairs this with a synthetic "other"
// option that takes free text.
func ListRevertReasons(c *gin.Context) {
	db := config.GetDB()

	var reasons []models.RevertReason
	if err := db.Where("active = ?", true).Order("id asc").Find(&reasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load revert reasons",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reasons,
	})
}

// CreateRevertReason handles POST /api/v1/revert-reasons - adds a catalog
// entry (managers only)
func CreateRevertReason(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleManager) {
		return
	}

	var req CreateRevertReasonRequest
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

	label := strings.TrimSpace(req.Label)
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Label must not be blank",
			},
		})
		return
	}

	db := config.GetDB()
	reason := models.RevertReason{Label: label, Active: true}
	if err := db.Create(&reason).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REVERT_REASON_EXISTS",
					"message": "A revert reason with this label already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create revert reason",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    reason,
	})
}
