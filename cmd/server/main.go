package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/osu-score-tracker-backend/api"
	"github.com/SlpAus/osu-score-tracker-backend/internal/osuapi"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/backup"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/health"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/shutdown"
	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/startup"
	"github.com/SlpAus/osu-score-tracker-backend/internal/score"
	"github.com/SlpAus/osu-score-tracker-backend/internal/sync"
	"github.com/SlpAus/osu-score-tracker-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 仅用于本地开发，缺失时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("无法加载配置: %v", err))
	}

	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)
	backup.Configure(cfg.Database.Sqlite)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 4. 组装对外API客户端与同步引擎
	apiClient := osuapi.NewClient(cfg.Osu)
	translator := score.NewTranslator(apiClient)
	engine := sync.NewEngine(database.DB, apiClient, translator)

	// 5. 创建生命周期管理器并启动后台服务
	// 手动触发的流程也挂靠在优雅停机的上下文上
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()
	sync.PrimeModule(engine, gracefulManager.Context())

	schedulerHandle, err := gracefulManager.NewServiceHandle("sync-scheduler")
	if err != nil {
		panic(fmt.Sprintf("无法注册同步调度器: %v", err))
	}
	go sync.StartScheduler(schedulerHandle, engine, cfg.Sync)
	go health.StartRedisHealthCheck()

	// 6. 配置Gin引擎与路由
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 7. 阻塞等待停机信号并编排优雅停机
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
