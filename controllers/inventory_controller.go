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

// CreateItemRequest is the request body for adding an inventory item
type CreateItemRequest struct {
	SKU       string  `json:"sku" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
}

// AdjustStockRequest is the request body for a manual stock adjustment
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CreateVendorRequest is the request body for registering a vendor
type CreateVendorRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// PurchaseOrderLineRequest is one line of a create-purchase-order request
type PurchaseOrderLineRequest struct {
	ItemID   uint    `json:"item_id" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	UnitCost float64 `json:"unit_cost"`
}

// CreatePurchaseOrderRequest is the request body for creating a purchase order
type CreatePurchaseOrderRequest struct {
	VendorID uint                       `json:"vendor_id" binding:"required"`
	Lines    []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1"`
}

// CreateItem handles POST /api/v1/items
func CreateItem(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CreateItemRequest
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

	item := models.Item{
		SKU:       req.SKU,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}

	db := config.GetDB()
	if err := db.Create(&item).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SKU_EXISTS",
					"message": "An item with this SKU already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// ListItems handles GET /api/v1/items
func ListItems(c *gin.Context) {
	db := config.GetDB()

	var items []models.Item
	if err := db.Order("sku asc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load items",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// AdjustStock handles POST /api/v1/items/:id/adjust-stock - applies a manual
// delta to an item's quantity on hand; stock never goes negative
func AdjustStock(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req AdjustStockRequest
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

	db := config.GetDB()
	var item models.Item
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ITEM_NOT_FOUND",
				"message": "Item not found",
			},
		})
		return
	}

	newQuantity := item.QuantityOnHand + req.Delta
	if newQuantity < 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INSUFFICIENT_STOCK",
				"message": "Adjustment would make stock negative",
			},
		})
		return
	}

	if err := db.Model(&item).Update("quantity_on_hand", newQuantity).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to adjust stock",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// CreateVendor handles POST /api/v1/vendors
func CreateVendor(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CreateVendorRequest
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

	vendor := models.Vendor{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	db := config.GetDB()
	if err := db.Create(&vendor).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VENDOR_EXISTS",
					"message": "A vendor with this name already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create vendor",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    vendor,
	})
}

// ListVendors handles GET /api/v1/vendors
func ListVendors(c *gin.Context) {
	db := config.GetDB()

	var vendors []models.Vendor
	if err := db.Order("name asc").Find(&vendors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load vendors",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vendors,
	})
}

// CreatePurchaseOrder handles POST /api/v1/purchase-orders
func CreatePurchaseOrder(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CreatePurchaseOrderRequest
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

	db := config.GetDB()
	var vendor models.Vendor
	if err := db.First(&vendor, req.VendorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VENDOR_NOT_FOUND",
				"message": "Vendor not found",
			},
		})
		return
	}

	po := models.PurchaseOrder{
		VendorID: vendor.ID,
		Status:   models.PurchaseOrderStatusDraft,
	}
	for _, line := range req.Lines {
		var item models.Item
		if err := db.First(&item, line.ItemID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ITEM_NOT_FOUND",
					"message": "Item not found",
				},
			})
			return
		}
		po.Lines = append(po.Lines, models.PurchaseOrderLine{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
		})
	}

	if err := db.Create(&po).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create purchase order",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    po,
	})
}

// PlacePurchaseOrder handles POST /api/v1/purchase-orders/:id/place -
// marks a draft purchase order as ordered
func PlacePurchaseOrder(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var po models.PurchaseOrder
	if err := db.First(&po, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PURCHASE_ORDER_NOT_FOUND",
				"message": "Purchase order not found",
			},
		})
		return
	}

	if po.Status != models.PurchaseOrderStatusDraft {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":           "INVALID_TRANSITION",
				"message":        "Only draft purchase orders can be placed",
				"current_status": po.Status,
			},
		})
		return
	}

	now := time.Now()
	err := db.Model(&po).Updates(map[string]interface{}{
		"status":     models.PurchaseOrderStatusOrdered,
		"ordered_at": now,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to place purchase order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    po,
	})
}

// ReceivePurchaseOrder handles POST /api/v1/purchase-orders/:id/receive -
// marks an ordered purchase order received and increments stock for every
// line's item in one transaction
func ReceivePurchaseOrder(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var po models.PurchaseOrder
	if err := db.Preload("Lines").First(&po, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PURCHASE_ORDER_NOT_FOUND",
				"message": "Purchase order not found",
			},
		})
		return
	}

	if po.Status != models.PurchaseOrderStatusOrdered {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":           "INVALID_TRANSITION",
				"message":        "Only ordered purchase orders can be received",
				"current_status": po.Status,
			},
		})
		return
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, line := range po.Lines {
			err := tx.Model(&models.Item{}).
				Where("id = ?", line.ItemID).
				Update("quantity_on_hand", gorm.Expr("quantity_on_hand + ?", line.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&po).Updates(map[string]interface{}{
			"status":      models.PurchaseOrderStatusReceived,
			"received_at": now,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to receive purchase order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    po,
	})
}
