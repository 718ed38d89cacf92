package auth

import (
	"net/http"

	"livetalk/backend/internal/database"
	"livetalk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware creates a gin middleware that admits root admins and
// moderators holding the given panel permission. It must be used AFTER the
// standard AuthMiddleware.
func AdminMiddleware(panel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
			return
		}

		if !user.HasPermission(panel) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		// Asset URL fields are root-only; handlers consult this flag when a
		// moderator edits an entity carrying raw media URLs.
		c.Set("isRootAdmin", user.Role == models.RoleAdmin)
		c.Next()
	}
}

// RootAdminMiddleware admits only the root admin role. It must be used AFTER
// the standard AuthMiddleware.
func RootAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
			return
		}

		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Root admin access required"})
			return
		}

		c.Set("isRootAdmin", true)
		c.Next()
	}
}
