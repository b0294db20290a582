package database

import (
	"context"
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// RDB 是全局的Redis客户端，承载排名缓存。
var RDB *redis.Client

// Ctx 是Redis操作使用的全局上下文。
var Ctx = context.Background()

// InitRedis 按配置建立Redis连接。
// Redis在这里只是可再生的缓存层，但启动时必须可达：
// 连接失败直接panic，避免带着不完整的缓存对外服务。
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := RDB.Ping(Ctx).Result(); err != nil {
		panic("无法连接到Redis: " + err.Error())
	}

	fmt.Println("Redis 连接成功！")
}
