package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/services"
)

// ListTechnicians handles GET /api/v1/technicians - returns every active
// technician with derived availability and current-task detail. Remaining
// times are recomputed against wall clock on every call, never cached.
func ListTechnicians(c *gin.Context) {
	db := config.GetDB()

	availability, err := services.ResolveTechnicianAvailability(db, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to resolve technician availability",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    availability,
	})
}
