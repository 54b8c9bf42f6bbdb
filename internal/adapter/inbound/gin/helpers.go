package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserIDFromContext extracts the authenticated user ID from gin context.
// Returns the user ID and true, or writes a 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	if userID, ok := userIDVal.(uuid.UUID); ok {
		return userID, true
	}

	if idStr, ok := userIDVal.(string); ok {
		userID, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID"})
			return uuid.Nil, false
		}
		return userID, true
	}

	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID"})
	return uuid.Nil, false
}

// parseIDParam parses a UUID path parameter. Writes a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
