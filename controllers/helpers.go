package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/middleware"
	"github.com/rafael-ortega/garage-flow-api/models"
)

// getCurrentUser resolves the acting staff member from the validated JWT.
// Every mutating operation threads its actor through this lookup; there is
// no ambient or hardcoded user id anywhere.
// On failure it writes the error response and returns false.
func getCurrentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil, false
	}

	return &user, true
}

// requireRole checks the acting user's role. On failure it writes the
// error response and returns false.
func requireRole(c *gin.Context, user *models.User, roles ...string) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}

	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Insufficient role for this operation",
		},
	})
	return false
}
