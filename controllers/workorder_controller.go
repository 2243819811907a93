package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"gorm.io/gorm"
)

// CreateVariationRequest is the request body for creating a stage template
type CreateVariationRequest struct {
	Name   string   `json:"name" binding:"required"`
	Stages []string `json:"stages" binding:"required,min=1"`
}

// ListWorkOrders handles GET /api/v1/work-orders
func ListWorkOrders(c *gin.Context) {
	db := config.GetDB()

	var workOrders []models.WorkOrder
	err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).Order("id desc").Find(&workOrders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load work orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    workOrders,
	})
}

// GetWorkOrder handles GET /api/v1/work-orders/:id - returns the work order
// with its ordered stages, per-stage projections and a progress summary
func GetWorkOrder(c *gin.Context) {
	workOrderID := c.Param("id")

	db := config.GetDB()
	var workOrder models.WorkOrder
	err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).Preload("Stages.AssignedTechnician").
		First(&workOrder, workOrderID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "WORK_ORDER_NOT_FOUND",
				"message": "Work order not found",
			},
		})
		return
	}

	now := time.Now()
	completed := 0
	stageViews := make([]gin.H, 0, len(workOrder.Stages))
	for i := range workOrder.Stages {
		stage := &workOrder.Stages[i]
		if stage.Status == models.StageStatusCompleted {
			completed++
		}
		stageViews = append(stageViews, stageView(stage, now))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"work_order": workOrder,
			"stages":     stageViews,
			"progress": gin.H{
				"completed": completed,
				"total":     len(workOrder.Stages),
			},
		},
	})
}

// ListVariations handles GET /api/v1/variations
func ListVariations(c *gin.Context) {
	db := config.GetDB()

	var variations []models.Variation
	err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).Where("active = ?", true).Order("name asc").Find(&variations).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load variations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    variations,
	})
}

// GetVariation handles GET /api/v1/variations/:id
func GetVariation(c *gin.Context) {
	db := config.GetDB()

	var variation models.Variation
	err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).First(&variation, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VARIATION_NOT_FOUND",
				"message": "Variation not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    variation,
	})
}

// CreateVariation handles POST /api/v1/variations - creates a named template
// of ordered stage definitions (managers only)
func CreateVariation(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleManager) {
		return
	}

	var req CreateVariationRequest
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

	for _, name := range req.Stages {
		if strings.TrimSpace(name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Stage names must not be blank",
				},
			})
			return
		}
	}

	variation := models.Variation{Name: req.Name, Active: true}
	for i, name := range req.Stages {
		variation.Stages = append(variation.Stages, models.VariationStage{
			Name:     name,
			Position: i + 1,
		})
	}

	db := config.GetDB()
	if err := db.Create(&variation).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VARIATION_EXISTS",
					"message": "A variation with this name already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create variation",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    variation,
	})
}
