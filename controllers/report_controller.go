package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/rafael-ortega/garage-flow-api/services"
)

// DownloadWorkOrderReport handles GET /api/v1/reports/work-orders.xlsx -
// streams a spreadsheet of every work order's stages with estimated vs
// actual hours (managers only)
func DownloadWorkOrderReport(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, models.RoleManager) {
		return
	}

	db := config.GetDB()
	data, err := services.GenerateWorkOrderReport(db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_ERROR",
				"message": "Failed to generate report",
			},
		})
		return
	}

	filename := fmt.Sprintf("work-orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
