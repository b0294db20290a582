package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetUsersHandler 处理 GET /api/users
func GetUsersHandler(c *gin.Context) {
	users, err := ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// RemoveUserHandler 处理 DELETE /api/users/:id?cascade=true
func RemoveUserHandler(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}
	cascade := c.Query("cascade") == "true"

	if err := RemoveUser(userID, cascade); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "cascade": cascade})
}

// SetAutotrackHandler 处理 PATCH /api/users/:id/autotrack
func SetAutotrackHandler(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	if err := SetAutotrack(database.DB, userID, body.Enabled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "autotrack": body.Enabled})
}
