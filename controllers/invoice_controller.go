package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"gorm.io/gorm"
)

// InvoiceLineRequest is one billed line in a create-invoice request
type InvoiceLineRequest struct {
	ItemID      *uint   `json:"item_id"`
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInvoiceRequest is the request body for creating an invoice.
// When variation_id is set, a work order is instantiated from the template
// in the same transaction.
type CreateInvoiceRequest struct {
	CustomerID  uint                 `json:"customer_id" binding:"required"`
	VehicleID   uint                 `json:"vehicle_id" binding:"required"`
	VariationID *uint                `json:"variation_id"`
	Lines       []InvoiceLineRequest `json:"lines"`
}

// OpenCaseRequest is the request body for opening a dispute/approval case
// against a locked invoice
type OpenCaseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveCaseRequest is the request body for resolving a case
type ResolveCaseRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// CreateInvoice handles POST /api/v1/invoices
func CreateInvoice(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CreateInvoiceRequest
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

	var vehicle models.Vehicle
	if err := db.Where("id = ? AND customer_id = ?", req.VehicleID, req.CustomerID).First(&vehicle).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VEHICLE_NOT_FOUND",
				"message": "Vehicle not found for this customer",
			},
		})
		return
	}

	var variation models.Variation
	if req.VariationID != nil {
		err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).Where("id = ? AND active = ?", *req.VariationID, true).First(&variation).Error
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
	}

	invoice := models.Invoice{
		CustomerID: req.CustomerID,
		VehicleID:  req.VehicleID,
		Status:     models.InvoiceStatusDraft,
	}
	for _, line := range req.Lines {
		invoice.Lines = append(invoice.Lines, models.InvoiceLine{
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		invoice.Total += float64(line.Quantity) * line.UnitPrice
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		if req.VariationID == nil {
			return nil
		}

		workOrder := models.WorkOrder{
			InvoiceID:   invoice.ID,
			VariationID: variation.ID,
			Status:      models.WorkOrderStatusOpen,
		}
		for _, stageDef := range variation.Stages {
			workOrder.Stages = append(workOrder.Stages, models.Stage{
				Name:     stageDef.Name,
				Position: stageDef.Position,
				Status:   models.StageStatusNotStarted,
			})
		}
		return tx.Create(&workOrder).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create invoice",
			},
		})
		return
	}

	// Load relationships to return complete data
	var created models.Invoice
	err = db.Preload("Customer").Preload("Vehicle").Preload("Lines").
		Preload("WorkOrder.Stages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).
		First(&created, invoice.ID).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load invoice details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// ListInvoices handles GET /api/v1/invoices
func ListInvoices(c *gin.Context) {
	db := config.GetDB()

	var invoices []models.Invoice
	err := db.Preload("Customer").Preload("Vehicle").Order("id desc").Find(&invoices).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load invoices",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoices,
	})
}

// GetInvoice handles GET /api/v1/invoices/:id
func GetInvoice(c *gin.Context) {
	db := config.GetDB()

	var invoice models.Invoice
	err := db.Preload("Customer").Preload("Vehicle").Preload("Lines").
		Preload("WorkOrder.Stages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).
		First(&invoice, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// IssueInvoice handles POST /api/v1/invoices/:id/issue - moves a draft
// invoice to issued
func IssueInvoice(c *gin.Context) {
	transitionInvoice(c, models.InvoiceStatusDraft, models.InvoiceStatusIssued)
}

// PayInvoice handles POST /api/v1/invoices/:id/pay - marks an issued invoice
// as paid
func PayInvoice(c *gin.Context) {
	transitionInvoice(c, models.InvoiceStatusIssued, models.InvoiceStatusPaid)
}

func transitionInvoice(c *gin.Context, from, to string) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	if invoice.Status != from {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":           "INVALID_TRANSITION",
				"message":        "Invoice cannot move to " + to + " from its current status",
				"current_status": invoice.Status,
			},
		})
		return
	}

	if err := db.Model(&invoice).Update("status", to).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update invoice",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// LockInvoice handles POST /api/v1/invoices/:id/lock - freezes the invoice
// against edits; further changes go through the case workflow
func LockInvoice(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	if invoice.Locked {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_LOCKED",
				"message": "Invoice is already locked",
			},
		})
		return
	}

	if err := db.Model(&invoice).Update("locked", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to lock invoice",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// OpenCase handles POST /api/v1/invoices/:id/cases - opens a dispute or
// approval case against a locked invoice
func OpenCase(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req OpenCaseRequest
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
	var invoice models.Invoice
	if err := db.First(&invoice, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_FOUND",
				"message": "Invoice not found",
			},
		})
		return
	}

	// Cases exist to challenge a frozen invoice; an unlocked one can simply
	// be edited.
	if !invoice.Locked {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVOICE_NOT_LOCKED",
				"message": "Cases can only be opened against locked invoices",
			},
		})
		return
	}

	var openCases int64
	db.Model(&models.Case{}).
		Where("invoice_id = ? AND status = ?", invoice.ID, models.CaseStatusOpen).
		Count(&openCases)
	if openCases > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CASE_ALREADY_OPEN",
				"message": "An open case already exists for this invoice",
			},
		})
		return
	}

	caseRecord := models.Case{
		Number:     uuid.NewString(),
		InvoiceID:  invoice.ID,
		Status:     models.CaseStatusOpen,
		Reason:     req.Reason,
		OpenedByID: user.ID,
	}
	if err := db.Create(&caseRecord).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to open case",
			},
		})
		return
	}

	if err := db.Preload("OpenedBy").First(&caseRecord, caseRecord.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load case details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    caseRecord,
	})
}

// ListCases handles GET /api/v1/cases
func ListCases(c *gin.Context) {
	db := config.GetDB()

	query := db.Preload("OpenedBy").Preload("ResolvedBy").Order("id desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var cases []models.Case
	if err := query.Find(&cases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load cases",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
	})
}

// ResolveCase handles POST /api/v1/cases/:id/resolve - approves or rejects
// an open case (managers only). Approval unlocks the invoice.
func ResolveCase(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleManager) {
		return
	}

	var req ResolveCaseRequest
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
	var caseRecord models.Case
	if err := db.First(&caseRecord, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CASE_NOT_FOUND",
				"message": "Case not found",
			},
		})
		return
	}

	if caseRecord.Status != models.CaseStatusOpen {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CASE_ALREADY_RESOLVED",
				"message": "Case has already been resolved",
			},
		})
		return
	}

	status := models.CaseStatusRejected
	if req.Approve {
		status = models.CaseStatusApproved
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         status,
			"resolved_by_id": user.ID,
			"resolved_at":    now,
		}
		if strings.TrimSpace(req.Notes) != "" {
			updates["resolution_notes"] = req.Notes
		}
		if err := tx.Model(&caseRecord).Updates(updates).Error; err != nil {
			return err
		}

		// Approval unlocks the disputed invoice for editing
		if req.Approve {
			return tx.Model(&models.Invoice{}).
				Where("id = ?", caseRecord.InvoiceID).
				Update("locked", false).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to resolve case",
			},
		})
		return
	}

	if err := db.Preload("OpenedBy").Preload("ResolvedBy").First(&caseRecord, caseRecord.ID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load case details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    caseRecord,
	})
}
