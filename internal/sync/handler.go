package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/gin-gonic/gin"
)

// procedureBusy 保证手动触发的流程同一时刻只有一个在运行。
// 远端限速预算是全局的，重叠的流程只会互相拖慢。
var procedureBusy atomic.Bool

// triggerProcedure 异步执行一个长流程并立即返回202。
// 流程可能运行数小时，同步等待HTTP响应没有意义。
func triggerProcedure(c *gin.Context, name string, proc func(context.Context) error) {
	if globalEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "同步引擎尚未初始化"})
		return
	}
	if !procedureBusy.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "已有同步流程在运行"})
		return
	}

	go func() {
		defer procedureBusy.Store(false)
		// 不使用请求上下文：响应返回后流程继续运行；
		// 但停机信号广播时必须随之取消
		if err := proc(globalCtx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				fmt.Printf("手动触发的%s流程因停机被取消。\n", name)
				return
			}
			fmt.Printf("错误: 手动触发的%s流程中止: %v\n", name, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"procedure": name})
}

// IngestHandler 处理 POST /api/sync/new —— 流程A
func IngestHandler(c *gin.Context) {
	triggerProcedure(c, "摄取新成绩", func(ctx context.Context) error {
		return globalEngine.IngestNewScores(ctx)
	})
}

// RefreshScoresHandler 处理 POST /api/sync/scores —— 流程C
func RefreshScoresHandler(c *gin.Context) {
	triggerProcedure(c, "全量刷新", func(ctx context.Context) error {
		return globalEngine.RefreshAllScores(ctx)
	})
}

// RefreshUsersHandler 处理 POST /api/sync/users —— 流程D
func RefreshUsersHandler(c *gin.Context) {
	triggerProcedure(c, "用户刷新", func(ctx context.Context) error {
		return globalEngine.RefreshUsers(ctx)
	})
}

// DedupHandler 处理 POST /api/sync/dedup —— 流程B
func DedupHandler(c *gin.Context) {
	triggerProcedure(c, "去重", func(ctx context.Context) error {
		return globalEngine.RemoveDuplicateScores(ctx)
	})
}

// AddUserHandler 处理 POST /api/users
func AddUserHandler(c *gin.Context) {
	if globalEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "同步引擎尚未初始化"})
		return
	}

	var body struct {
		UserID uint64 `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	u, err := globalEngine.AddUser(c.Request.Context(), body.UserID)
	if err != nil {
		if errors.Is(err, osuapi.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "远端不存在该用户"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

// AddScoreHandler 处理 POST /api/scores
func AddScoreHandler(c *gin.Context) {
	if globalEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "同步引擎尚未初始化"})
		return
	}

	scoreID, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的成绩ID"})
		return
	}

	rec, err := globalEngine.AddScore(c.Request.Context(), scoreID)
	if err != nil {
		if errors.Is(err, osuapi.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "远端不存在该成绩"})
			return
		}
		if skip, ok := score.AsSkip(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": skip.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}
