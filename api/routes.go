package api

import (
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/sync"
	"github.com/SlpAus/osu-score-tracker-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 用户相关的路由组 /api/users
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("", user.GetUsersHandler)
			userRoutes.POST("", sync.AddUserHandler)
			userRoutes.DELETE("/:id", user.RemoveUserHandler)
			userRoutes.PATCH("/:id/autotrack", user.SetAutotrackHandler)
		}

		// 成绩相关的路由组 /api/scores
		scoreRoutes := api.Group("/scores")
		{
			scoreRoutes.GET("", score.GetScoresHandler)
			scoreRoutes.POST("", sync.AddScoreHandler)
			scoreRoutes.DELETE("/:id", score.RemoveScoreHandler)
		}

		// 手动触发同步流程的路由组 /api/sync
		syncRoutes := api.Group("/sync")
		{
			syncRoutes.POST("/new", sync.IngestHandler)
			syncRoutes.POST("/scores", sync.RefreshScoresHandler)
			syncRoutes.POST("/users", sync.RefreshUsersHandler)
			syncRoutes.POST("/dedup", sync.DedupHandler)
		}
	}
}
