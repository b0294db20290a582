package user

import (
	"encoding/json"
	"fmt"

	"github.com/SlpAus/osu-score-tracker-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// --- Redis 键名常量 ---

const (
	// StatsKey 是一个 Redis Hash 的键，用于存储每个用户的概要统计信息。
	// Field: 用户ID的十进制字符串
	// Value: CachedStats 结构体的JSON序列化字符串
	StatsKey = "user:stats"

	// RankingKey 是一个 Redis Sorted Set 的键，按总表现分对用户实时排序。
	// Score: 用户的总表现分
	// Member: 用户ID的十进制字符串
	RankingKey = "user:ranking"
)

// CachedStats 定义了在 user:stats 哈希表中以JSON格式存储的概要数据。
// 它是给展示层的只读快照，真实数据以SQLite为准。
type CachedStats struct {
	Username  string  `json:"username"`
	PP        float64 `json:"pp"`
	Top1Count int     `json:"top1"`
	Top2Count int     `json:"top2"`
	Top3Count int     `json:"top3"`
}

// WarmupCache 从SQLite加载全部用户并重建Redis排名缓存。
// 注意：此函数不做健康检查，调用方需要确保在安全的时机调用。
func WarmupCache() error {
	users, err := GetUsers(database.DB)
	if err != nil {
		return fmt.Errorf("无法从SQLite读取用户数据: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, StatsKey, RankingKey)

	for _, u := range users {
		member := fmt.Sprintf("%d", u.UserID)
		stats := CachedStats{
			Username:  u.Username,
			PP:        u.PP,
			Top1Count: u.Top1Count,
			Top2Count: u.Top2Count,
			Top3Count: u.Top3Count,
		}
		statsJSON, _ := json.Marshal(stats)
		pipe.HSet(database.Ctx, StatsKey, member, statsJSON)
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
			Score:  u.PP,
			Member: member,
		})
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热用户排名缓存到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户的排名缓存到Redis。\n", len(users))
	return nil
}

// RefreshCacheIfHealthy 在Redis可用时重建排名缓存，不可用时静默跳过。
// 名次重算等流程完成后调用。
func RefreshCacheIfHealthy() {
	if !database.IsRedisHealthy() {
		fmt.Println("用户缓存: 检测到Redis不可用，跳过本次排名缓存刷新。")
		return
	}
	if err := WarmupCache(); err != nil {
		fmt.Printf("警告: 用户排名缓存刷新失败: %v\n", err)
	}
}

// RemoveFromCache 在用户被移除时同步清理缓存条目。
func RemoveFromCache(userID uint64) {
	if !database.IsRedisHealthy() {
		return
	}
	member := fmt.Sprintf("%d", userID)
	pipe := database.RDB.Pipeline()
	pipe.HDel(database.Ctx, StatsKey, member)
	pipe.ZRem(database.Ctx, RankingKey, member)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 无法从Redis缓存中移除用户 %d: %v\n", userID, err)
	}
}
