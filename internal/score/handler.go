package score

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- API响应模型 ---

type partitionScoresResponse struct {
	Partition string  `json:"partition"`
	Scores    []Score `json:"scores"`
}

// GetScoresHandler 处理 GET /api/scores?mods=HDDT
// 不带mods参数时返回所有非空分区。
func GetScoresHandler(c *gin.Context) {
	partitionKey := c.Query("mods")

	result, err := ListScores(partitionKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := make([]partitionScoresResponse, 0, len(result))
	for _, dto := range result {
		response = append(response, partitionScoresResponse{
			Partition: dto.Partition,
			Scores:    dto.Scores,
		})
	}
	c.JSON(http.StatusOK, response)
}

// RemoveScoreHandler 处理 DELETE /api/scores/:id?mods=HDDT
func RemoveScoreHandler(c *gin.Context) {
	scoreID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的成绩ID"})
		return
	}

	partition, err := RemoveScore(c.Query("mods"), scoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "成绩不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scoreId": scoreID, "partition": partition})
}
